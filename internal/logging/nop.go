package logging

import "context"

// NopLogger discards all records. Useful as a default and in tests.
type NopLogger struct{}

// NewNopLogger returns a Logger that does nothing.
func NewNopLogger() *NopLogger {
	return &NopLogger{}
}

func (NopLogger) Debug(ctx context.Context, msg string, args ...any) {}
func (NopLogger) Info(ctx context.Context, msg string, args ...any)  {}
func (NopLogger) Warn(ctx context.Context, msg string, args ...any)  {}
func (NopLogger) Error(ctx context.Context, msg string, args ...any) {}
func (n NopLogger) With(args ...any) Logger                          { return n }
