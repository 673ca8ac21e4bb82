package anubad

import (
	"context"
	"strings"
	"time"
)

// how often the run context is polled, in steps
const contextPollInterval = 256

// ExecutionState is owned by a single run: its variables, captured output
// and step counter. It is discarded when the run ends.
type ExecutionState struct {
	ctx       context.Context
	config    *Config
	variables map[string]interface{}
	output    strings.Builder
	steps     int64
	started   time.Time
}

// NewExecutionState creates the state for one run
func NewExecutionState(ctx context.Context, config *Config) *ExecutionState {
	return &ExecutionState{
		ctx:       ctx,
		config:    config,
		variables: make(map[string]interface{}),
		started:   time.Now(),
	}
}

// Get looks up a run variable
func (s *ExecutionState) Get(name string) (interface{}, bool) {
	v, ok := s.variables[name]
	return v, ok
}

// Set binds a run variable
func (s *ExecutionState) Set(name string, value interface{}) {
	s.variables[name] = value
}

// Steps returns the number of steps charged so far
func (s *ExecutionState) Steps() int64 {
	return s.steps
}

// Output returns the captured output
func (s *ExecutionState) Output() string {
	return s.output.String()
}

// Write appends to the captured output, enforcing MaxOutputBytes
func (s *ExecutionState) Write(text string, line int) error {
	if limit := s.config.MaxOutputBytes; limit > 0 && s.output.Len()+len(text) > limit {
		return newRuntimeError(MemoryError, line, "output exceeds the limit of %d bytes", limit)
	}
	s.output.WriteString(text)
	return nil
}

// checkString enforces MaxStringLength on a string about to be created
func (s *ExecutionState) checkString(length int, line int) error {
	if limit := s.config.MaxStringLength; limit > 0 && length > limit {
		return newRuntimeError(MemoryError, line, "string of %d bytes exceeds the limit of %d bytes", length, limit)
	}
	return nil
}

// step charges one unit of work and reports a TimeoutError once the step
// budget is spent or the run context is done.
func (s *ExecutionState) step() error {
	s.steps++
	if budget := s.config.MaxSteps; budget > 0 && s.steps > budget {
		return s.timeout(ErrStepBudget)
	}
	if s.steps%contextPollInterval == 0 {
		if err := s.ctx.Err(); err != nil {
			return s.timeout(err)
		}
	}
	return nil
}

func (s *ExecutionState) timeout(cause error) *TimeoutError {
	return &TimeoutError{
		Steps:   s.steps,
		Elapsed: time.Since(s.started),
		Cause:   cause,
	}
}
