package filter

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/sambeau/datespan/pkg/datespan/period"
)

// Dialect selects placeholder style, identifier quoting and how boundaries
// are bound.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
	MySQL
)

var dialectNames = map[string]Dialect{
	"sqlite":     SQLite,
	"sqlite3":    SQLite,
	"postgres":   Postgres,
	"postgresql": Postgres,
	"pq":         Postgres,
	"mysql":      MySQL,
}

// ParseDialect looks up a dialect by driver or database name.
func ParseDialect(name string) (Dialect, error) {
	d, ok := dialectNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("unknown SQL dialect: %q (want sqlite, postgres or mysql)", name)
	}
	return d, nil
}

func (d Dialect) String() string {
	switch d {
	case SQLite:
		return "sqlite"
	case Postgres:
		return "postgres"
	case MySQL:
		return "mysql"
	}
	return fmt.Sprintf("Dialect(%d)", int(d))
}

// DriverName returns the database/sql driver registered for d.
func (d Dialect) DriverName() string {
	return d.String()
}

func (d Dialect) placeholder(n int) string {
	if d == Postgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func (d Dialect) quote(ident string) string {
	if d == MySQL {
		return "`" + ident + "`"
	}
	return `"` + ident + `"`
}

// sqliteLayout is how boundaries are bound for SQLite. julianday rounds to
// whole milliseconds, so a microsecond end of day would round up into the
// next day.
const sqliteLayout = "2006-01-02 15:04:05.000"

// bind converts a boundary to a query argument. SQLite has no time type,
// so boundaries are bound as text and compared through julianday.
func (d Dialect) bind(v period.Value) (any, any) {
	if d == SQLite {
		return v.Start.Format(sqliteLayout), v.End.Format(sqliteLayout)
	}
	return v.Start, v.End
}

// between renders one "column within bounds" test. SQLite compares
// julianday values so ISO dates, date-times with a space or T separator,
// datetime() output and the text modernc writes for time.Time all match.
// The last of these ("2024-06-15 12:00:00 +0000 UTC") is not valid input
// to julianday, so it falls back to the first 19 characters and compares
// at whole seconds.
func (d Dialect) between(col string, lo, hi int) string {
	if d == SQLite {
		return fmt.Sprintf("(coalesce(julianday(%s), julianday(substr(%s, 1, 19))) BETWEEN julianday(%s) AND julianday(%s))",
			col, col, d.placeholder(lo), d.placeholder(hi))
	}
	return fmt.Sprintf("(%s BETWEEN %s AND %s)", col, d.placeholder(lo), d.placeholder(hi))
}

var identifierRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

const maxIdentifierLength = 64

// validateIdentifier rejects anything that is not a plain identifier, so
// table and column names can be interpolated into SQL.
func validateIdentifier(name string) error {
	if name == "" || len(name) > maxIdentifierLength || !identifierRegex.MatchString(name) {
		return fmt.Errorf("invalid SQL identifier: %q (must be alphanumeric/underscore, max %d chars)",
			name, maxIdentifierLength)
	}
	return nil
}

// Predicate builds a WHERE clause matching column against any span:
// (col BETWEEN ? AND ?) OR (col BETWEEN ? AND ?) ..., with SQLite wrapping
// each side in julianday. With no spans the clause matches nothing.
func Predicate(column string, d Dialect, spans []period.Value) (string, []any, error) {
	if err := validateIdentifier(column); err != nil {
		return "", nil, err
	}
	if len(spans) == 0 {
		return "1 = 0", nil, nil
	}

	col := d.quote(column)
	parts := make([]string, len(spans))
	args := make([]any, 0, 2*len(spans))
	for i, s := range spans {
		parts[i] = d.between(col, 2*i+1, 2*i+2)
		start, end := d.bind(s)
		args = append(args, start, end)
	}
	return strings.Join(parts, " OR "), args, nil
}

// Query counts the rows of table whose column falls inside any span.
func Query(ctx context.Context, db *sql.DB, d Dialect, table, column string, spans []period.Value) (int64, error) {
	if err := validateIdentifier(table); err != nil {
		return 0, err
	}
	where, args, err := Predicate(column, d, spans)
	if err != nil {
		return 0, err
	}

	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", d.quote(table), where)
	var n int64
	if err := db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count rows in %s: %w", table, err)
	}
	return n, nil
}
