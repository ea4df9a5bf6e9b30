package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/goodsign/monday"

	"github.com/sambeau/datespan/config"
	"github.com/sambeau/datespan/pkg/datespan/datespan"
	dserrors "github.com/sambeau/datespan/pkg/datespan/errors"
	"github.com/sambeau/datespan/pkg/datespan/evaluator"
	"github.com/sambeau/datespan/pkg/datespan/filter"
	"github.com/sambeau/datespan/pkg/datespan/format"
	"github.com/sambeau/datespan/pkg/datespan/lexer"
	"github.com/sambeau/datespan/pkg/datespan/parser"
	"github.com/sambeau/datespan/pkg/datespan/repl"
)

// Version is set at build time via -ldflags
var Version = "0.1.0-dev"

func main() {
	ctx := context.Background()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr, os.Getenv); err != nil {
		if dsErr, ok := dserrors.As(err); ok {
			fmt.Fprintln(os.Stderr, dsErr.PrettyString())
		} else {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

// run is the main entry point, designed for testability (Mat Ryer pattern)
func run(ctx context.Context, args []string, stdout, stderr io.Writer, getenv func(string) string) error {
	if len(args) > 0 {
		switch args[0] {
		case "query":
			return runQuery(ctx, args[1:], stdout, stderr, getenv)
		case "watch":
			return runWatch(ctx, args[1:], stdout, stderr, getenv)
		}
	}

	flags := flag.NewFlagSet("datespan", flag.ContinueOnError)
	flags.SetOutput(stderr)

	common := addCommonFlags(flags)
	var (
		showTokens  = flags.Bool("tokens", false, "Print the token stream")
		showAST     = flags.Bool("ast", false, "Print the syntax tree")
		showVersion = flags.Bool("version", false, "Show version")
		showHelp    = flags.Bool("help", false, "Show help")
	)

	if err := flags.Parse(args); err != nil {
		return err
	}

	if *showHelp {
		printUsage(stdout)
		return nil
	}

	if *showVersion {
		fmt.Fprintf(stdout, "datespan version %s\n", Version)
		return nil
	}

	app, err := common.setup(flags, stdout, stderr, getenv)
	if err != nil {
		return err
	}
	defer app.close()

	phrase := strings.TrimSpace(strings.Join(flags.Args(), " "))
	if phrase == "" {
		repl.Start(stdout, repl.Options{
			Version:     Version,
			HistoryFile: app.cfg.REPL.HistoryFile,
			Style:       app.style,
			Locale:      app.locale,
			Config:      app.cfg.EvaluatorConfig(),
			Clock:       app.clock,
		})
		return nil
	}

	tokens := lexer.Tokenize(phrase)
	if *showTokens {
		for _, tok := range tokens {
			fmt.Fprintln(stdout, tok.String())
		}
	}
	if *showAST {
		program, err := parser.Parse(tokens)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, program.String())
	}

	set, err := app.evaluate(phrase)
	if err != nil {
		if app.style == format.StyleJSON {
			writeErrorJSON(stdout, err)
		}
		return err
	}
	return format.Write(stdout, set.Statements, app.style, app.locale)
}

// writeErrorJSON reports a phrase error on stdout as {"error": {...}} so
// --format json callers always get a JSON document.
func writeErrorJSON(w io.Writer, err error) {
	dsErr, ok := dserrors.As(err)
	if !ok {
		return
	}
	data, jsonErr := dsErr.ToJSON()
	if jsonErr != nil {
		return
	}
	fmt.Fprintf(w, "{\"error\": %s}\n", data)
}

// runQuery counts rows of a SQL table whose column falls inside the phrase.
func runQuery(ctx context.Context, args []string, stdout, stderr io.Writer, getenv func(string) string) error {
	flags := flag.NewFlagSet("datespan query", flag.ContinueOnError)
	flags.SetOutput(stderr)

	common := addCommonFlags(flags)
	var (
		driver  = flags.String("driver", "", "SQL dialect: sqlite, postgres or mysql")
		dsn     = flags.String("dsn", "", "Data source name")
		table   = flags.String("table", "", "Table to count")
		column  = flags.String("column", "", "Timestamp column to filter on")
		explain = flags.Bool("explain", false, "Print the WHERE clause instead of running it")
	)

	if err := flags.Parse(args); err != nil {
		return err
	}

	app, err := common.setup(flags, stdout, stderr, getenv)
	if err != nil {
		return err
	}
	defer app.close()

	q := app.cfg.Query
	if *driver != "" {
		q.Driver = *driver
	}
	if *dsn != "" {
		q.DSN = *dsn
	}
	if *table != "" {
		q.Table = *table
	}
	if *column != "" {
		q.Column = *column
	}

	phrase := strings.TrimSpace(strings.Join(flags.Args(), " "))
	if phrase == "" {
		return fmt.Errorf("query: a phrase is required")
	}

	dialect, err := filter.ParseDialect(q.Driver)
	if err != nil {
		return err
	}

	set, err := app.evaluate(phrase)
	if err != nil {
		return err
	}

	if *explain {
		where, binds, err := filter.Predicate(q.Column, dialect, set.Spans())
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, where)
		for i, b := range binds {
			fmt.Fprintf(stdout, "  %d: %v\n", i+1, b)
		}
		return nil
	}

	if q.DSN == "" || q.Table == "" {
		return fmt.Errorf("query: --dsn and --table are required")
	}

	db, err := sql.Open(dialect.DriverName(), q.DSN)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	n, err := filter.Query(ctx, db, dialect, q.Table, q.Column, set.Spans())
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, n)
	return nil
}

// runWatch re-evaluates every line of a file whenever it changes.
func runWatch(ctx context.Context, args []string, stdout, stderr io.Writer, getenv func(string) string) error {
	flags := flag.NewFlagSet("datespan watch", flag.ContinueOnError)
	flags.SetOutput(stderr)
	common := addCommonFlags(flags)

	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		return fmt.Errorf("watch: exactly one file is required")
	}
	path := flags.Arg(0)

	app, err := common.setup(flags, stdout, stderr, getenv)
	if err != nil {
		return err
	}
	defer app.close()

	if err := app.evaluateFile(path); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	w, err := NewWatcher(path, stdout, stderr, func(string) {
		if err := app.evaluateFile(path); err != nil {
			logError(stderr, "%v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close()

	if err := w.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}

// commonFlags are shared by every subcommand.
type commonFlags struct {
	configPath *string
	now        *string
	format     *string
	locale     *string
	dayFirst   *bool
}

func addCommonFlags(flags *flag.FlagSet) *commonFlags {
	return &commonFlags{
		configPath: flags.String("config", "", "Path to config file"),
		now:        flags.String("now", "", "Reference time (default: the current time)"),
		format:     flags.String("format", "", "Output format: iso, long or json"),
		locale:     flags.String("locale", "", "Locale for long output, e.g. en-GB"),
		dayFirst:   flags.Bool("day-first", false, "Read ambiguous numeric dates day first"),
	}
}

// cliEnv is the resolved configuration for one command.
type cliEnv struct {
	cfg     *config.Config
	style   format.Style
	locale  monday.Locale
	clock   func() time.Time
	logger  datespan.Logger
	stdout  io.Writer
	logFile *os.File
}

// setup loads configuration and applies the flags that were set on the
// command line.
func (c *commonFlags) setup(flags *flag.FlagSet, stdout, stderr io.Writer, getenv func(string) string) (*cliEnv, error) {
	cfg, configFile, err := config.LoadWithPath(*c.configPath, getenv)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	set := map[string]bool{}
	flags.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["format"] {
		cfg.Output.Format = *c.format
	}
	if set["locale"] {
		cfg.Output.Locale = *c.locale
	}
	if set["day-first"] {
		cfg.Parse.DayFirst = *c.dayFirst
	}

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	for _, w := range config.Warnings(cfg) {
		logWarn(stderr, "%s", w)
	}

	a := &cliEnv{cfg: cfg, stdout: stdout, clock: time.Now}
	a.style, _ = format.ParseStyle(cfg.Output.Format)
	a.locale, _ = format.Locale(cfg.Output.Locale)

	if *c.now != "" {
		now, err := parseNow(*c.now, cfg.Parse.DayFirst)
		if err != nil {
			return nil, err
		}
		a.clock = func() time.Time { return now }
	}

	if cfg.Debug() {
		var out io.Writer = stderr
		switch cfg.Logging.Output {
		case "", "stderr":
		case "stdout":
			out = stdout
		default:
			f, err := os.OpenFile(cfg.Logging.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
			if err != nil {
				return nil, fmt.Errorf("opening log file: %w", err)
			}
			a.logFile = f
			out = f
		}
		a.logger = datespan.WriterLogger(out, "[DEBUG] ")
		if configFile != "" {
			logInfo(out, "config: %s", configFile)
		}
	}

	return a, nil
}

func (a *cliEnv) close() {
	if a.logFile != nil {
		a.logFile.Close()
	}
}

func (a *cliEnv) evaluate(phrase string) (*datespan.SpanSet, error) {
	opts := []datespan.Option{
		datespan.WithNow(a.clock()),
		datespan.WithConfig(a.cfg.EvaluatorConfig()),
	}
	if a.logger != nil {
		opts = append(opts, datespan.WithLogger(a.logger))
	}
	return datespan.Parse(phrase, opts...)
}

// evaluateFile prints every non-blank, non-comment line of path followed by
// its spans, indented.
func (a *cliEnv) evaluateFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		phrase := strings.TrimSpace(line)
		if phrase == "" || strings.HasPrefix(phrase, "#") {
			continue
		}
		fmt.Fprintln(a.stdout, phrase)

		set, err := a.evaluate(phrase)
		if err != nil {
			fmt.Fprint(a.stdout, indent("error: "+err.Error()))
			continue
		}
		if set.Len() == 0 {
			fmt.Fprint(a.stdout, indent("(no spans)"))
			continue
		}
		fmt.Fprint(a.stdout, indent(format.Text(set.Statements, a.style, a.locale)))
	}
	return nil
}

func indent(s string) string {
	lines := strings.SplitAfter(s, "\n")
	var sb strings.Builder
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			sb.WriteString("  ")
		}
		sb.WriteString(l)
	}
	if !strings.HasSuffix(s, "\n") {
		sb.WriteString("\n")
	}
	return sb.String()
}

// parseNow accepts RFC 3339 or anything the date-literal parser understands.
func parseNow(s string, dayFirst bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	lit, err := evaluator.NewDateParser(dayFirst).Parse(s, time.Now())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --now: %w", err)
	}
	return lit.Time, nil
}

func logInfo(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "[INFO] "+format+"\n", args...)
}

func logWarn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "[WARN] "+format+"\n", args...)
}

func logError(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "[ERROR] "+format+"\n", args...)
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `datespan - Turn period phrases into time spans

Usage:
  datespan [options] [PHRASE]
  datespan query [options] PHRASE
  datespan watch [options] FILE

With no phrase, datespan starts an interactive shell.

Options:
  --config PATH    Path to config file (default: auto-detect)
  --now TIME       Reference time (default: the current time)
  --format STYLE   Output format: iso, long or json (default: iso)
  --locale TAG     Locale for long output, e.g. en-GB, fr, de
  --day-first      Read 03/04/2024 as 3 April
  --tokens         Print the token stream
  --ast            Print the syntax tree
  --version        Show version
  --help           Show this help

Query options:
  --driver NAME    sqlite, postgres or mysql
  --dsn DSN        Data source name
  --table NAME     Table to count
  --column NAME    Timestamp column to filter on
  --explain        Print the WHERE clause instead of running it

Config Resolution:
  1. --config flag
  2. DATESPAN_CONFIG environment variable
  3. ./datespan.yaml
  4. ~/.config/datespan/datespan.yaml

Examples:
  datespan "last 3 months"
  datespan --format long --locale en-GB "every 1st Monday of this quarter"
  datespan --now 2024-06-15T12:00:00Z "r3m; Q1"
  datespan query --dsn events.db --table events --column created_at "since January"
  datespan watch phrases.txt

`)
}
