// anubad - run Bangla mini-language programs from the command line
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kong"
	"golang.org/x/term"

	"github.com/anubad-lang/anubad"
	"github.com/anubad-lang/anubad/internal/history"
	"github.com/anubad-lang/anubad/internal/server"
)

var version = "dev" // set via -ldflags at build time

// ANSI color codes for terminal output
const (
	colorYellow = "\x1b[93m"
	colorGreen  = "\x1b[32m"
	colorReset  = "\x1b[0m"
)

// CLI defines the command-line interface
var CLI struct {
	Config    string `name:"config" short:"c" help:"Config file (default ~/.anubad/config.yaml)" type:"path"`
	Debug     bool   `name:"debug" short:"d" help:"Enable debug output"`
	Timeout   string `name:"timeout" help:"Wall-clock limit per run, e.g. 2s (0 disables)"`
	MaxSteps  int64  `name:"max-steps" default:"-1" help:"Step budget per run (0 disables)"`
	HistoryDB string `name:"history-db" help:"SQLite file for run history" type:"path"`

	Run       RunCmd       `cmd:"" help:"Run a program (use - for stdin)"`
	Translate TranslateCmd `cmd:"" help:"Print the canonical program for a source file"`
	Check     CheckCmd     `cmd:"" help:"Check a program for syntax errors without running it"`
	Keywords  KeywordsCmd  `cmd:"" help:"List the keyword vocabulary"`
	Serve     ServeCmd     `cmd:"" help:"Serve the HTTP and WebSocket API"`
	History   HistoryGroup `cmd:"" help:"Inspect recorded runs"`
	Version   VersionCmd   `cmd:"" help:"Print version information"`
}

// HistoryGroup contains run history operations
type HistoryGroup struct {
	List HistoryListCmd `cmd:"" help:"List recent runs"`
	Show HistoryShowCmd `cmd:"" help:"Show one run's source and result"`
}

// exitError ends the process with a status code after its output has
// already been printed
type exitError struct {
	code int
}

func (e exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// session is bound into every command
type session struct {
	config *anubad.Config
	engine *anubad.Engine
	logger *anubad.Logger
}

func (s *session) openHistory() (*history.Store, error) {
	if s.config.HistoryDB == "" {
		return nil, nil
	}
	return history.Open(s.config.HistoryDB, s.logger)
}

func stderrSupportsColor() bool {
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		return false
	}
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return false
	}
	return os.Getenv("TERM") != "dumb"
}

func errorPrintf(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	if stderrSupportsColor() {
		fmt.Fprintf(os.Stderr, "%s%s%s", colorYellow, message, colorReset)
	} else {
		fmt.Fprint(os.Stderr, message)
	}
}

// findSourceFile tries the exact name, then the name with .bn appended
func findSourceFile(filename string) string {
	if _, err := os.Stat(filename); err == nil {
		return filename
	}
	if filepath.Ext(filename) == "" {
		bnFile := filename + ".bn"
		if _, err := os.Stat(bnFile); err == nil {
			return bnFile
		}
	}
	return ""
}

func readSource(path string) (string, error) {
	if path == "-" {
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading from stdin: %w", err)
		}
		return string(content), nil
	}

	found := findSourceFile(path)
	if found == "" {
		if !strings.Contains(filepath.Base(path), ".") {
			return "", fmt.Errorf("source file not found: %s (also tried %s.bn)", path, path)
		}
		return "", fmt.Errorf("source file not found: %s", path)
	}
	content, err := os.ReadFile(found)
	if err != nil {
		return "", fmt.Errorf("reading source file: %w", err)
	}
	return string(content), nil
}

// printCompileContext shows the canonical lines around a syntax error
func printCompileContext(s *session, err *anubad.CompileError) {
	if !s.config.ShowErrorContext || err.Position == nil {
		return
	}
	errorPrintf("\n%s\n", anubad.FormatSourceContext(err.Position, err.Context, s.config.ContextLines))
}

// RunCmd runs a program
type RunCmd struct {
	File      string `arg:"" default:"-" help:"Source file (.bn) or - for stdin"`
	Raw       bool   `help:"Print captured output without localized digits or banner"`
	NoHistory bool   `name:"no-history" help:"Do not record this run"`
}

func (c *RunCmd) Run(s *session) error {
	source, err := readSource(c.File)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	result := s.engine.Run(ctx, source)
	elapsed := time.Since(start)

	if !c.NoHistory {
		store, err := s.openHistory()
		if err != nil {
			s.logger.Warn(anubad.CatHistory, "History unavailable: %v", err)
		} else if store != nil {
			if _, err := store.Record(context.Background(), source, result, elapsed); err != nil {
				s.logger.Warn(anubad.CatHistory, "%v", err)
			}
			store.Close()
		}
	}

	if out, ok := result.(*anubad.Output); ok {
		if c.Raw {
			fmt.Print(out.Text)
		} else {
			fmt.Println(anubad.FormatSuccess(out.Text))
		}
		return nil
	}

	errorPrintf("%s\n", anubad.Format(result))
	if compileErr, ok := result.(*anubad.CompileError); ok {
		printCompileContext(s, compileErr)
	}
	return exitError{code: 1}
}

// TranslateCmd prints the canonical program
type TranslateCmd struct {
	File string `arg:"" default:"-" help:"Source file (.bn) or - for stdin"`
}

func (c *TranslateCmd) Run(s *session) error {
	source, err := readSource(c.File)
	if err != nil {
		return err
	}
	program, err := s.engine.Translate(source)
	if err != nil {
		errorPrintf("%s\n", anubad.FormatFailure(err))
		return exitError{code: 1}
	}
	fmt.Println(program.Source())
	return nil
}

// CheckCmd validates a program without running it
type CheckCmd struct {
	File string `arg:"" default:"-" help:"Source file (.bn) or - for stdin"`
}

func (c *CheckCmd) Run(s *session) error {
	source, err := readSource(c.File)
	if err != nil {
		return err
	}
	program, err := s.engine.Check(source)
	if err != nil {
		errorPrintf("%s\n", anubad.FormatFailure(err))
		var compileErr *anubad.CompileError
		if errors.As(err, &compileErr) {
			printCompileContext(s, compileErr)
		}
		return exitError{code: 1}
	}
	fmt.Printf("ok: %d statements\n", len(program.Body))
	return nil
}

// KeywordsCmd lists the keyword table
type KeywordsCmd struct {
	Guide bool `name:"guide" short:"g" help:"Show the full keyword guide"`
}

func (c *KeywordsCmd) Run() error {
	if c.Guide {
		fmt.Print(anubad.KeywordHelp + "\n")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "BANGLA\tCANONICAL")
	for _, kw := range anubad.Keywords() {
		canonical := kw.Canonical
		if canonical == "" {
			canonical = "(removed)"
		}
		fmt.Fprintf(w, "%s\t%s\n", kw.Localized, canonical)
	}
	return w.Flush()
}

// ServeCmd starts the HTTP and WebSocket API
type ServeCmd struct {
	Addr           string   `default:"127.0.0.1:8080" help:"Listen address"`
	AllowedOrigins []string `name:"allowed-origin" help:"Origin allowed to open /ws (repeatable, * for any)"`
}

func (c *ServeCmd) Run(s *session) error {
	store, err := s.openHistory()
	if err != nil {
		return fmt.Errorf("opening history: %w", err)
	}
	if store != nil {
		defer store.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(s.engine, server.Options{
		AllowedOrigins: c.AllowedOrigins,
		History:        store,
	})
	return srv.ListenAndServe(ctx, c.Addr)
}

// HistoryListCmd lists recent runs
type HistoryListCmd struct {
	Limit int `short:"n" default:"20" help:"Number of runs to show"`
}

func (c *HistoryListCmd) Run(s *session) error {
	store, err := s.openHistory()
	if err != nil {
		return fmt.Errorf("opening history: %w", err)
	}
	if store == nil {
		return errors.New("history is disabled: set history_db in the config or pass --history-db")
	}
	defer store.Close()

	records, err := store.Recent(context.Background(), c.Limit)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tWHEN\tKIND\tSTEPS\tFIRST LINE")
	for _, rec := range records {
		first, _, _ := strings.Cut(strings.TrimSpace(rec.Source), "\n")
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			rec.ID[:8], rec.CreatedAt.Format("2006-01-02 15:04:05"), rec.Kind, rec.Steps, first)
	}
	return w.Flush()
}

// HistoryShowCmd prints one recorded run
type HistoryShowCmd struct {
	ID string `arg:"" help:"Run ID or unique prefix"`
}

func (c *HistoryShowCmd) Run(s *session) error {
	store, err := s.openHistory()
	if err != nil {
		return fmt.Errorf("opening history: %w", err)
	}
	if store == nil {
		return errors.New("history is disabled: set history_db in the config or pass --history-db")
	}
	defer store.Close()

	rec, err := store.Get(context.Background(), c.ID)
	if err != nil {
		return err
	}
	color := ""
	if stderrSupportsColor() {
		color = colorGreen
	}
	reset := ""
	if color != "" {
		reset = colorReset
	}
	fmt.Printf("%sid:%s      %s\n", color, reset, rec.ID)
	fmt.Printf("%swhen:%s    %s (%s)\n", color, reset, rec.CreatedAt.Format(time.RFC3339), rec.Elapsed)
	fmt.Printf("%sdigest:%s  %s\n", color, reset, rec.Digest)
	fmt.Printf("%skind:%s    %s\n\n", color, reset, rec.Kind)
	fmt.Println(rec.Source)
	fmt.Println("---")
	fmt.Println(rec.Display)
	return nil
}

// VersionCmd prints version information
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("anubad %s\n", version)
	return nil
}

// loadSession applies config file, then global flags
func loadSession() (*session, error) {
	path := CLI.Config
	if path == "" {
		path = anubad.DefaultConfigPath()
	}
	config, err := anubad.LoadOrCreateConfig(path)
	if err != nil {
		return nil, err
	}

	if CLI.Debug {
		config.Debug = true
	}
	if CLI.Timeout != "" {
		timeout, err := time.ParseDuration(CLI.Timeout)
		if err != nil || timeout < 0 {
			return nil, fmt.Errorf("invalid --timeout %q", CLI.Timeout)
		}
		config.Timeout = timeout
	}
	if CLI.MaxSteps >= 0 {
		config.MaxSteps = CLI.MaxSteps
	}
	if CLI.HistoryDB != "" {
		config.HistoryDB = CLI.HistoryDB
	}

	logger := anubad.NewLogger(config.Debug)
	return &session{
		config: config,
		engine: anubad.NewWithLogger(config, logger),
		logger: logger,
	}, nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("anubad"),
		kong.Description("Bangla mini-language translator and sandboxed runner"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	s, err := loadSession()
	ctx.FatalIfErrorf(err)

	err = ctx.Run(s)
	var exit exitError
	if errors.As(err, &exit) {
		os.Exit(exit.code)
	}
	ctx.FatalIfErrorf(err)
}
