package logger

import "context"

// noopLogger discards everything. Used as a default in constructors and
// as a stand-in in tests that do not assert on log output.
type noopLogger struct{}

// NewNoop returns a Logger that discards all entries.
func NewNoop() Logger { return noopLogger{} }

func (noopLogger) Debug(context.Context, string, ...Field)        {}
func (noopLogger) Info(context.Context, string, ...Field)         {}
func (noopLogger) Warn(context.Context, string, ...Field)         {}
func (noopLogger) Error(context.Context, string, error, ...Field) {}
func (noopLogger) Fatal(context.Context, string, error, ...Field) {}
func (n noopLogger) WithComponent(string) Logger                  { return n }
func (n noopLogger) WithFields(...Field) Logger                   { return n }
