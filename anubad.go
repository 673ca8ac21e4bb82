// Package anubad translates Bangla mini-language source into a canonical
// block-structured program, validates it, and runs it under a closed set of
// capabilities.
package anubad

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"time"
)

// Engine runs source text through the translation pipeline. It holds only
// read-only state and is safe for concurrent use.
type Engine struct {
	config   *Config
	logger   *Logger
	executor *Executor
}

// New creates a new engine
func New(config *Config) *Engine {
	if config == nil {
		config = DefaultConfig()
	}
	logger := NewLogger(config.Debug)
	return NewWithLogger(config, logger)
}

// NewWithLogger creates an engine that logs through logger
func NewWithLogger(config *Config, logger *Logger) *Engine {
	if config == nil {
		config = DefaultConfig()
	}
	if len(config.LogCategories) == 0 {
		logger.EnableAllCategories()
	}
	for _, cat := range config.LogCategories {
		logger.EnableCategory(LogCategory(cat))
	}
	return &Engine{
		config:   config,
		logger:   logger,
		executor: NewExecutor(config, logger),
	}
}

// Config returns a copy of the engine configuration
func (e *Engine) Config() Config {
	return *e.config
}

// Logger returns the engine logger
func (e *Engine) Logger() *Logger {
	return e.logger
}

// Translate returns the canonical program for source. Blank source yields
// ErrEmptyInput.
func (e *Engine) Translate(source string) (*CanonicalProgram, error) {
	if strings.TrimSpace(source) == "" {
		return nil, &EmptyInputError{}
	}
	start := time.Now()
	program := Translate(source)
	e.logger.Debug(CatTranslate, "Translated %d lines in %s:\n%s", len(program.Lines), time.Since(start), program.Source())
	return program, nil
}

// Check translates and validates source without running it
func (e *Engine) Check(source string) (*Program, error) {
	program, err := e.Translate(source)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	validated, err := Validate(program)
	if err != nil {
		return nil, err
	}
	e.logger.Debug(CatParse, "Validated %d statements in %s", len(validated.Body), time.Since(start))
	return validated, nil
}

// Run executes source synchronously and returns exactly one Result
func (e *Engine) Run(ctx context.Context, source string) (result Result) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error(CatRun, "Recovered from panic during run: %v\n%s", r, debug.Stack())
			result = &RuntimeError{Kind: InternalError, Message: fmt.Sprintf("internal error: %v", r)}
		}
		e.logger.Debug(CatRun, "Run finished as %s in %s", ResultKind(result), time.Since(start))
	}()

	program, err := e.Check(source)
	if err != nil {
		return asResult(err)
	}

	if e.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.Timeout)
		defer cancel()
	}

	state, err := e.executor.execute(ctx, program, NewCapabilitySet())
	if err != nil {
		return asResult(err)
	}
	return &Output{
		Text:     state.Output(),
		Steps:    state.Steps(),
		Duration: time.Since(start),
	}
}

// Start runs source on its own goroutine. The returned channel delivers
// exactly one Result and is then closed.
func (e *Engine) Start(ctx context.Context, source string) <-chan Result {
	results := make(chan Result, 1)
	go func() {
		defer close(results)
		results <- e.Run(ctx, source)
	}()
	return results
}

// asResult maps a pipeline error onto its Result variant
func asResult(err error) Result {
	if r, ok := err.(Result); ok {
		return r
	}
	return &RuntimeError{Kind: InternalError, Message: err.Error()}
}
