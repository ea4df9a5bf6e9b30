// Package format renders resolved spans for people and programs.
package format

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/goodsign/monday"
	"golang.org/x/text/language"

	"github.com/sambeau/datespan/pkg/datespan/period"
)

// Style selects an output rendering.
type Style int

const (
	StyleISO Style = iota
	StyleLong
	StyleJSON
)

// ParseStyle accepts "iso", "long" or "json".
func ParseStyle(name string) (Style, error) {
	switch strings.ToLower(name) {
	case "", "iso":
		return StyleISO, nil
	case "long":
		return StyleLong, nil
	case "json":
		return StyleJSON, nil
	}
	return 0, fmt.Errorf("unknown format %q (want iso, long or json)", name)
}

func (s Style) String() string {
	switch s {
	case StyleISO:
		return "iso"
	case StyleLong:
		return "long"
	case StyleJSON:
		return "json"
	}
	return fmt.Sprintf("Style(%d)", int(s))
}

// ISO renders v as an ISO 8601 interval with microseconds.
func ISO(v period.Value) string {
	return v.Start.Format(period.Layout) + "/" + v.End.Format(period.Layout)
}

// localeMap maps language tags (lowercase, underscore separated) to monday locales.
var localeMap = map[string]monday.Locale{
	"en":    monday.LocaleEnUS,
	"en_us": monday.LocaleEnUS,
	"en_gb": monday.LocaleEnGB,
	"de":    monday.LocaleDeDE,
	"de_de": monday.LocaleDeDE,
	"de_at": monday.LocaleDeDE,
	"de_ch": monday.LocaleDeDE,
	"fr":    monday.LocaleFrFR,
	"fr_fr": monday.LocaleFrFR,
	"fr_ca": monday.LocaleFrCA,
	"es":    monday.LocaleEsES,
	"es_es": monday.LocaleEsES,
	"it":    monday.LocaleItIT,
	"pt":    monday.LocalePtPT,
	"pt_br": monday.LocalePtBR,
	"nl":    monday.LocaleNlNL,
	"nl_be": monday.LocaleNlBE,
	"ru":    monday.LocaleRuRU,
	"pl":    monday.LocalePlPL,
	"cs":    monday.LocaleCsCZ,
	"da":    monday.LocaleDaDK,
	"fi":    monday.LocaleFiFI,
	"sv":    monday.LocaleSvSE,
	"nb":    monday.LocaleNbNO,
	"ja":    monday.LocaleJaJP,
	"zh":    monday.LocaleZhCN,
	"zh_tw": monday.LocaleZhTW,
	"ko":    monday.LocaleKoKR,
}

// Locale resolves a BCP 47 tag ("en-GB", "fr", "pt-BR") to a monday locale,
// falling back from language-region to language and then to US English.
// Malformed tags are an error.
func Locale(tag string) (monday.Locale, error) {
	if strings.TrimSpace(tag) == "" {
		return monday.LocaleEnUS, nil
	}
	t, err := language.Parse(strings.ReplaceAll(tag, "_", "-"))
	if err != nil {
		return "", fmt.Errorf("invalid locale %q: %w", tag, err)
	}

	base, _ := t.Base()
	key := strings.ToLower(base.String())
	if region, conf := t.Region(); conf == language.Exact {
		if loc, ok := localeMap[key+"_"+strings.ToLower(region.String())]; ok {
			return loc, nil
		}
	}
	if loc, ok := localeMap[key]; ok {
		return loc, nil
	}
	return monday.LocaleEnUS, nil
}

const (
	longDate     = "Monday 2 January 2006"
	longDateTime = "Monday 2 January 2006 15:04:05"
)

// Long renders v in words for the given locale. Whole days print as dates,
// anything else with times. Sub-second detail is dropped.
func Long(v period.Value, loc monday.Locale) string {
	layout := longDateTime
	if isWholeDays(v) {
		layout = longDate
	}
	start := monday.Format(v.Start, layout, loc)
	if v.IsPoint() || (layout == longDate && sameDay(v)) {
		return start
	}
	return start + " to " + monday.Format(v.End, layout, loc)
}

func isWholeDays(v period.Value) bool {
	return v.Start.Equal(period.Floor(v.Start, period.Day)) && v.End.Equal(period.Ceil(v.End, period.Day))
}

func sameDay(v period.Value) bool {
	return period.Floor(v.Start, period.Day).Equal(period.Floor(v.End, period.Day))
}

type jsonSpan struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// JSON renders statements as a list of lists of {"start", "end"} objects.
func JSON(statements [][]period.Value) ([]byte, error) {
	out := make([][]jsonSpan, len(statements))
	for i, stmt := range statements {
		out[i] = make([]jsonSpan, len(stmt))
		for j, v := range stmt {
			out[i][j] = jsonSpan{Start: v.Start.Format(period.Layout), End: v.End.Format(period.Layout)}
		}
	}
	return json.MarshalIndent(out, "", "  ")
}

// Write renders statements to w in the given style. ISO and long output
// print one span per line, with a blank line between statements.
func Write(w io.Writer, statements [][]period.Value, style Style, loc monday.Locale) error {
	if style == StyleJSON {
		data, err := JSON(statements)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	for i, stmt := range statements {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		for _, v := range stmt {
			line := ISO(v)
			if style == StyleLong {
				line = Long(v, loc)
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
	return nil
}

// Text returns what Write would print.
func Text(statements [][]period.Value, style Style, loc monday.Locale) string {
	var buf bytes.Buffer
	if err := Write(&buf, statements, style, loc); err != nil {
		return ""
	}
	return buf.String()
}
