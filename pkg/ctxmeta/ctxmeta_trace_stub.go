//go:build !otel || gopls

package ctxmeta

import "context"

// Without the `otel` build tag, trace/span ids are always absent.
func TraceIDFromContext(context.Context) (string, bool) { return "", false }
func SpanIDFromContext(context.Context) (string, bool)  { return "", false }
