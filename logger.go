package anubad

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// LogLevel represents the severity of a log message (higher value = higher severity)
type LogLevel int

const (
	LevelTrace  LogLevel = iota // Detailed tracing (requires enabled + category)
	LevelInfo                   // Informational messages (requires enabled + category)
	LevelDebug                  // Development debugging (requires enabled + category)
	LevelNotice                 // Notable events (always shown)
	LevelWarn                   // Warnings (always shown)
	LevelError                  // Errors (always shown)
	LevelFatal                  // Errors that end the process (always shown)
)

// LogCategory represents the subsystem generating the message
type LogCategory string

const (
	CatNone       LogCategory = ""
	CatTranslate  LogCategory = "translate"  // Numeral normalizer and line rewriter
	CatParse      LogCategory = "parse"      // Validator
	CatEval       LogCategory = "eval"       // Evaluator
	CatCapability LogCategory = "capability" // Builtin calls
	CatRun        LogCategory = "run"        // Engine and runner
	CatServer     LogCategory = "server"     // HTTP and WebSocket caller
	CatHistory    LogCategory = "history"    // Run history store
	CatApp        LogCategory = "app"        // CLI and GUI
)

// AllCategories lists every category in display order
var AllCategories = []LogCategory{
	CatTranslate, CatParse, CatEval, CatCapability, CatRun, CatServer, CatHistory, CatApp,
}

const (
	colorYellow = "\x1b[93m"
	colorReset  = "\x1b[0m"
)

// Logger handles logging for the engine and its callers
type Logger struct {
	mu                sync.RWMutex
	enabled           bool
	enabledCategories map[LogCategory]bool
	out               io.Writer
	colorEnabled      bool
}

// stderrSupportsColor checks if stderr is a terminal that supports color output
func stderrSupportsColor() bool {
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		return false
	}
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return false
	}
	return os.Getenv("TERM") != "dumb"
}

// NewLogger creates a new logger writing to stderr
func NewLogger(enabled bool) *Logger {
	return &Logger{
		enabled:           enabled,
		enabledCategories: make(map[LogCategory]bool),
		out:               os.Stderr,
		colorEnabled:      stderrSupportsColor(),
	}
}

// NewLoggerTo creates an uncolored logger writing to w
func NewLoggerTo(w io.Writer, enabled bool) *Logger {
	return &Logger{
		enabled:           enabled,
		enabledCategories: make(map[LogCategory]bool),
		out:               w,
	}
}

// SetEnabled enables or disables debug logging
func (l *Logger) SetEnabled(enabled bool) {
	l.mu.Lock()
	l.enabled = enabled
	l.mu.Unlock()
}

// EnableCategory enables debug logging for a specific category
func (l *Logger) EnableCategory(cat LogCategory) {
	l.mu.Lock()
	l.enabledCategories[cat] = true
	l.mu.Unlock()
}

// DisableCategory disables debug logging for a specific category
func (l *Logger) DisableCategory(cat LogCategory) {
	l.mu.Lock()
	delete(l.enabledCategories, cat)
	l.mu.Unlock()
}

// EnableAllCategories enables all categories for debug logging
func (l *Logger) EnableAllCategories() {
	for _, cat := range AllCategories {
		l.EnableCategory(cat)
	}
}

// IsCategoryEnabled checks if a category is enabled
func (l *Logger) IsCategoryEnabled(cat LogCategory) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.enabledCategories[cat]
}

func (l *Logger) shouldLog(level LogLevel, cat LogCategory) bool {
	switch level {
	case LevelFatal, LevelError, LevelWarn, LevelNotice:
		return true
	case LevelDebug, LevelInfo, LevelTrace:
		l.mu.RLock()
		defer l.mu.RUnlock()
		return l.enabled && (cat == CatNone || l.enabledCategories[cat])
	default:
		return false
	}
}

// Log is the unified logging method
func (l *Logger) Log(level LogLevel, cat LogCategory, message string, position *SourcePosition, context []string) {
	if !l.shouldLog(level, cat) {
		return
	}

	catSuffix := ""
	if cat != CatNone {
		catSuffix = ":" + string(cat)
	}

	var prefix string
	switch level {
	case LevelTrace:
		prefix = "[TRACE" + catSuffix + "]"
	case LevelInfo:
		prefix = "[INFO" + catSuffix + "]"
	case LevelDebug:
		prefix = "[DEBUG" + catSuffix + "]"
	case LevelNotice:
		prefix = "[anubad" + catSuffix + " NOTICE]"
	case LevelWarn:
		prefix = "[anubad" + catSuffix + " WARN]"
	case LevelError, LevelFatal:
		prefix = "[anubad" + catSuffix + " ERROR]"
	}

	output := prefix + " " + message
	if position != nil {
		filename := position.Filename
		if filename == "" {
			filename = "<input>"
		}
		output += fmt.Sprintf("\n  at line %d, column %d in %s", position.Line, position.Column, filename)
		if len(context) > 0 {
			output += "\n" + FormatSourceContext(position, context, 2)
		}
	}

	if l.colorEnabled && level >= LevelNotice {
		_, _ = fmt.Fprintf(l.out, "%s%s%s\n", colorYellow, output, colorReset)
		return
	}
	_, _ = fmt.Fprintln(l.out, output)
}

// Fatal logs an error message without a category
func (l *Logger) Fatal(format string, args ...interface{}) {
	l.Log(LevelFatal, CatNone, fmt.Sprintf(format, args...), nil, nil)
}

// Error logs a categorized error message
func (l *Logger) Error(cat LogCategory, format string, args ...interface{}) {
	l.Log(LevelError, cat, fmt.Sprintf(format, args...), nil, nil)
}

// Warn logs a categorized warning
func (l *Logger) Warn(cat LogCategory, format string, args ...interface{}) {
	l.Log(LevelWarn, cat, fmt.Sprintf(format, args...), nil, nil)
}

// Notice logs a categorized notice
func (l *Logger) Notice(cat LogCategory, format string, args ...interface{}) {
	l.Log(LevelNotice, cat, fmt.Sprintf(format, args...), nil, nil)
}

// Debug logs a categorized debug message
func (l *Logger) Debug(cat LogCategory, format string, args ...interface{}) {
	l.Log(LevelDebug, cat, fmt.Sprintf(format, args...), nil, nil)
}

// Info logs a categorized informational message
func (l *Logger) Info(cat LogCategory, format string, args ...interface{}) {
	l.Log(LevelInfo, cat, fmt.Sprintf(format, args...), nil, nil)
}

// Trace logs a categorized trace message
func (l *Logger) Trace(cat LogCategory, format string, args ...interface{}) {
	l.Log(LevelTrace, cat, fmt.Sprintf(format, args...), nil, nil)
}

// ParseError logs a syntax error with its source context (always visible)
func (l *Logger) ParseError(err *CompileError) {
	l.Log(LevelError, CatParse, "Syntax error: "+err.Message, err.Position, err.Context)
}

// FormatSourceContext renders the lines around position with line numbers,
// marking the error line with ">" and the column with a caret.
func FormatSourceContext(position *SourcePosition, lines []string, contextLines int) string {
	if position == nil || len(lines) == 0 {
		return ""
	}
	var message strings.Builder

	contextStart := max(0, position.Line-1-contextLines)
	contextEnd := min(len(lines), position.Line+contextLines)

	for i := contextStart; i < contextEnd; i++ {
		lineNum := i + 1
		isErrorLine := lineNum == position.Line

		prefix := " "
		if isErrorLine {
			prefix = ">"
		}
		if message.Len() > 0 {
			message.WriteString("\n")
		}
		fmt.Fprintf(&message, "  %s %3d | %s", prefix, lineNum, lines[i])

		if isErrorLine && position.Column > 0 {
			caretLen := max(1, position.Length)
			fmt.Fprintf(&message, "\n        | %s%s", strings.Repeat(" ", position.Column-1), strings.Repeat("^", caretLen))
		}
	}
	return message.String()
}
