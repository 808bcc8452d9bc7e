package logging

import (
	"context"
	"fmt"
	"regexp"
	"unicode/utf8"

	"go.uber.org/zap"
)

// ContextFields extracts correlation data from context.
func ContextFields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 4)

	if runID := RunIDFromContext(ctx); runID != "" {
		fields = append(fields, zap.String("run.id", runID))
	}
	if command := CommandFromContext(ctx); command != "" {
		fields = append(fields, zap.String("command", command))
	}
	if experiment := ExperimentFromContext(ctx); experiment != "" {
		fields = append(fields, zap.String("experiment", experiment))
	}

	return fields
}

// Context key types
type runCtxKey struct{}
type commandCtxKey struct{}
type experimentCtxKey struct{}

const maxIDLen = 128

// idPattern allows alphanumeric, hyphen, underscore
var idPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// validateID validates a run ID or command name.
func validateID(id, name string) error {
	if id == "" {
		return fmt.Errorf("%s cannot be empty", name)
	}
	if !utf8.ValidString(id) {
		return fmt.Errorf("%s contains invalid UTF-8", name)
	}
	if len(id) > maxIDLen {
		return fmt.Errorf("%s exceeds max length %d", name, maxIDLen)
	}
	if !idPattern.MatchString(id) {
		return fmt.Errorf("%s contains invalid characters (must be alphanumeric, hyphen, underscore)", name)
	}
	return nil
}

// RunIDFromContext extracts the run ID from context.
func RunIDFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(runCtxKey{}).(string); ok {
		return s
	}
	return ""
}

// WithRunID adds the run ID to context.
// Panics if runID is empty or contains invalid characters.
func WithRunID(ctx context.Context, runID string) context.Context {
	if err := validateID(runID, "runID"); err != nil {
		panic(fmt.Sprintf("logging: %v", err))
	}
	return context.WithValue(ctx, runCtxKey{}, runID)
}

// CommandFromContext extracts the subcommand name from context.
func CommandFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(commandCtxKey{}).(string); ok {
		return s
	}
	return ""
}

// WithCommand adds the subcommand name to context.
// Panics if command is empty or contains invalid characters.
func WithCommand(ctx context.Context, command string) context.Context {
	if err := validateID(command, "command"); err != nil {
		panic(fmt.Sprintf("logging: %v", err))
	}
	return context.WithValue(ctx, commandCtxKey{}, command)
}

// ExperimentFromContext extracts the experiment name from context.
func ExperimentFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(experimentCtxKey{}).(string); ok {
		return s
	}
	return ""
}

// WithExperiment adds the experiment name to context. Experiment names come
// from file and directory names, so they are stored as given.
func WithExperiment(ctx context.Context, experiment string) context.Context {
	return context.WithValue(ctx, experimentCtxKey{}, experiment)
}

// loggerCtxKey is the context key for Logger.
type loggerCtxKey struct{}

// WithLogger stores logger in context.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerCtxKey{}, logger)
}

// FromContext retrieves logger from context.
// Returns a nop logger if not found.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerCtxKey{}).(*Logger); ok {
		return l
	}
	return NewNop()
}
