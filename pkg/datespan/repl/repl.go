// Package repl implements the interactive datespan shell.
package repl

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goodsign/monday"
	"github.com/peterh/liner"

	"github.com/sambeau/datespan/pkg/datespan/datespan"
	"github.com/sambeau/datespan/pkg/datespan/errors"
	"github.com/sambeau/datespan/pkg/datespan/evaluator"
	"github.com/sambeau/datespan/pkg/datespan/format"
	"github.com/sambeau/datespan/pkg/datespan/lexer"
	"github.com/sambeau/datespan/pkg/datespan/parser"
	"github.com/sambeau/datespan/pkg/datespan/period"
)

const PROMPT = ">> "
const PROMPT_PINNED = "@> "

// Options configure a session.
type Options struct {
	Version     string
	HistoryFile string // empty: $TMPDIR/.datespan_history
	Style       format.Style
	Locale      monday.Locale
	Config      evaluator.Config
	Clock       func() time.Time // nil: time.Now
}

// Session holds the state of one shell. It is separate from the line editor
// so it can be driven directly.
type Session struct {
	opts       Options
	pinned     time.Time
	showTokens bool
	showAST    bool
}

// NewSession creates a session.
func NewSession(opts Options) *Session {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Locale == "" {
		opts.Locale = monday.LocaleEnUS
	}
	return &Session{opts: opts}
}

// Prompt returns the prompt for the current state.
func (s *Session) Prompt() string {
	if !s.pinned.IsZero() {
		return PROMPT_PINNED
	}
	return PROMPT
}

func (s *Session) now() time.Time {
	if !s.pinned.IsZero() {
		return s.pinned
	}
	return s.opts.Clock()
}

// Handle processes one line of input. It returns false when the session
// should end.
func (s *Session) Handle(input string, out io.Writer) bool {
	trimmed := strings.TrimSpace(input)
	switch {
	case trimmed == "":
		return true
	case trimmed == "exit" || trimmed == "quit":
		fmt.Fprintln(out, "Goodbye!")
		return false
	case strings.HasPrefix(trimmed, ":"):
		s.command(trimmed, out)
		return true
	}

	if s.showTokens {
		for _, tok := range lexer.Tokenize(trimmed) {
			fmt.Fprintln(out, "  "+tok.String())
		}
	}
	if s.showAST {
		if program, err := parser.Parse(lexer.Tokenize(trimmed)); err == nil {
			fmt.Fprintln(out, "  "+program.String())
		}
	}

	set, err := datespan.Parse(trimmed, datespan.WithNow(s.now()), datespan.WithConfig(s.opts.Config))
	if err != nil {
		printError(out, err)
		return true
	}
	if set.Len() == 0 {
		fmt.Fprintln(out, "(no spans)")
		return true
	}
	if err := format.Write(out, set.Statements, s.opts.Style, s.opts.Locale); err != nil {
		fmt.Fprintf(out, "Error writing output: %v\n", err)
	}
	return true
}

// command handles meta-commands that start with ':'.
func (s *Session) command(cmd string, out io.Writer) {
	name, arg, _ := strings.Cut(cmd, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case ":help", ":h", ":?":
		fmt.Fprintln(out, "REPL Commands:")
		fmt.Fprintln(out, "  :help, :h, :?      Show this help")
		fmt.Fprintln(out, "  :now [TIME|reset]  Show, pin or unpin the reference time")
		fmt.Fprintln(out, "  :format STYLE      Output style: iso, long or json")
		fmt.Fprintln(out, "  :locale TAG        Locale for long output (en-GB, fr, de ...)")
		fmt.Fprintln(out, "  :tokens            Toggle token display")
		fmt.Fprintln(out, "  :ast               Toggle syntax tree display")
		fmt.Fprintln(out, "  exit, quit         Exit the REPL")

	case ":now":
		switch arg {
		case "":
			fmt.Fprintln(out, s.now().Format(period.Layout))
		case "reset":
			s.pinned = time.Time{}
			fmt.Fprintln(out, "Reference time follows the clock")
		default:
			t, err := evaluator.NewDateParser(s.opts.Config.DayFirst).Parse(arg, s.opts.Clock())
			if err != nil {
				fmt.Fprintf(out, "Cannot parse time: %v\n", err)
				return
			}
			s.pinned = t.Time
			fmt.Fprintln(out, "Reference time pinned to "+s.pinned.Format(period.Layout))
		}

	case ":format":
		style, err := format.ParseStyle(arg)
		if err != nil {
			fmt.Fprintln(out, err)
			return
		}
		s.opts.Style = style
		fmt.Fprintln(out, "Output format: "+style.String())

	case ":locale":
		loc, err := format.Locale(arg)
		if err != nil {
			fmt.Fprintln(out, err)
			return
		}
		s.opts.Locale = loc
		fmt.Fprintln(out, "Locale: "+string(loc))

	case ":tokens":
		s.showTokens = !s.showTokens
		fmt.Fprintf(out, "Token display %s\n", onOff(s.showTokens))

	case ":ast":
		s.showAST = !s.showAST
		fmt.Fprintf(out, "Syntax tree display %s\n", onOff(s.showAST))

	default:
		fmt.Fprintf(out, "Unknown command: %s (type :help for commands)\n", name)
	}
}

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}

// Start runs the shell with line editing, history and tab completion.
func Start(out io.Writer, opts Options) {
	session := NewSession(opts)

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(filterCompletions)

	historyFile := opts.HistoryFile
	if historyFile == "" {
		historyFile = filepath.Join(os.TempDir(), ".datespan_history")
	}
	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(historyFile); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	fmt.Fprintln(out, "datespan v"+opts.Version)
	fmt.Fprintln(out, "Type a period such as \"last 3 months\"; 'exit' or Ctrl+D to quit")
	fmt.Fprintln(out, "Type ':help' for REPL commands")
	fmt.Fprintln(out, "")

	for {
		input, err := line.Prompt(session.Prompt())
		if err != nil {
			if err == liner.ErrPromptAborted {
				fmt.Fprintln(out, "^C")
				continue
			}
			if err == io.EOF {
				fmt.Fprintln(out, "\nGoodbye!")
				return
			}
			fmt.Fprintf(out, "Error reading input: %v\n", err)
			continue
		}

		if strings.TrimSpace(input) != "" {
			line.AppendHistory(input)
		}
		if !session.Handle(input, out) {
			return
		}
	}
}

// filterCompletions completes the last word from the lexer vocabulary.
func filterCompletions(line string) []string {
	if strings.TrimSpace(line) == "" || strings.HasSuffix(line, " ") || strings.HasSuffix(line, "\t") {
		return nil
	}

	words := strings.Fields(line)
	last := strings.ToLower(words[len(words)-1])
	head := line[:len(line)-len(words[len(words)-1])]

	var matches []string
	for _, word := range lexer.Vocabulary() {
		if strings.HasPrefix(word, last) {
			matches = append(matches, head+word)
		}
	}
	return matches
}

func printError(out io.Writer, err error) {
	if dsErr, ok := errors.As(err); ok {
		io.WriteString(out, dsErr.PrettyString())
		io.WriteString(out, "\n")
		return
	}
	fmt.Fprintf(out, "Error: %v\n", err)
}
