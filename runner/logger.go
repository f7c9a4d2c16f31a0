package runner

import "context"

// Logger is the minimal logging contract the runner needs from its
// host. It mirrors the teacher repo's ports.Logger shape so the same
// zap-backed adapter (pkg/logger) can serve both the HTTP surface and
// the runner.
type Logger interface {
	Infof(ctx context.Context, format string, args ...any)
	Warnf(ctx context.Context, format string, args ...any)
	Errorf(ctx context.Context, format string, args ...any)
}

// nopLogger discards everything. Used when no Logger is configured.
type nopLogger struct{}

func (nopLogger) Infof(context.Context, string, ...any)  {}
func (nopLogger) Warnf(context.Context, string, ...any)  {}
func (nopLogger) Errorf(context.Context, string, ...any) {}
