//go:build !notrace

package xtree

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"runtime"
	"time"
)

type traceLoggerKey struct{}
type spanIDKey struct{}

// TracingEnabled reports whether span/event tracing produces output in this
// build. Build with -tags notrace to strip it to no-ops for production.
var TracingEnabled = true

// the null logger is a logger that does nothing
var nullLogger = slog.New(slog.DiscardHandler)

// Span is the handle returned by StartSpan; call End when the traced
// operation completes. Kept as an interface so a future OpenTelemetry
// bridge can implement it without changing call sites.
type Span interface {
	End()
}

// SpanInfo carries the fields of a WithSpan-created span. Exported so
// callers (and tests) can inspect them directly.
type SpanInfo struct {
	ID       string
	ParentID string
	Name     string
	Start    time.Time
	Tags     map[string]string
}

type activeSpan struct {
	logger *slog.Logger
	info   *SpanInfo
}

func (s *activeSpan) End() {
	s.logger.Debug("END "+s.info.Name,
		slog.String("span_id", s.info.ID),
		slog.String("span_name", s.info.Name),
		slog.Duration("duration", time.Since(s.info.Start)),
	)
}

func generateSpanID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand failing means the platform RNG is unusable; a
		// zero-value id still lets tracing continue instead of panicking.
		return "0000000000000000"
	}
	return hex.EncodeToString(b[:])
}

// WithTraceLogger adds a trace logger to the context
func WithTraceLogger(ctx context.Context, tlog *slog.Logger) context.Context {
	// If the context already has a trace logger, return the context as is
	if _, ok := ctx.Value(traceLoggerKey{}).(*slog.Logger); ok {
		return ctx
	}

	// Otherwise, create a new context with the trace logger
	return context.WithValue(ctx, traceLoggerKey{}, tlog)
}

func getTraceLogFromContext(ctx context.Context) *slog.Logger {
	// If the context has a trace logger, use that
	if tlog, ok := ctx.Value(traceLoggerKey{}).(*slog.Logger); ok {
		// Retrieve the function name of the caller for tracing
		pc, _, _, ok := runtime.Caller(2)
		if ok {
			fn := runtime.FuncForPC(pc)
			if fn != nil {
				tlog = tlog.With(slog.String("fn", fn.Name()))
			}
		}

		return tlog
	}

	// Otherwise, return a null logger
	return nullLogger
}

// WithSpan starts a new span, nesting it under any span already present on
// ctx, and returns the context carrying it plus the SpanInfo describing it.
func WithSpan(ctx context.Context, name string) (context.Context, *SpanInfo) {
	info := &SpanInfo{
		ID:    generateSpanID(),
		Name:  name,
		Start: time.Now(),
	}
	if parentID, ok := ctx.Value(spanIDKey{}).(string); ok {
		info.ParentID = parentID
	}
	return context.WithValue(ctx, spanIDKey{}, info.ID), info
}

// StartSpan is WithSpan plus an immediate START log line and a Span handle
// whose End method logs the matching END line and duration.
func StartSpan(ctx context.Context, spanName string) (context.Context, Span) {
	ctx, info := WithSpan(ctx, spanName)
	logger := getTraceLogFromContext(ctx)
	logger.Debug("START "+spanName,
		slog.String("span_id", info.ID),
		slog.String("span_name", info.Name),
	)
	return ctx, &activeSpan{logger: logger, info: info}
}

// TraceEvent logs a structured debug event tagged with the current span, if any.
func TraceEvent(ctx context.Context, msg string, attrs ...slog.Attr) {
	logger := getTraceLogFromContext(ctx)
	if spanID, ok := ctx.Value(spanIDKey{}).(string); ok {
		attrs = append(attrs, slog.String("span_id", spanID))
	}
	logger.LogAttrs(ctx, slog.LevelDebug, msg, attrs...)
}

// TraceError logs an error event tagged with the current span, if any.
func TraceError(ctx context.Context, err error, msg string, attrs ...slog.Attr) {
	logger := getTraceLogFromContext(ctx)
	attrs = append(attrs, slog.String("error", err.Error()))
	if spanID, ok := ctx.Value(spanIDKey{}).(string); ok {
		attrs = append(attrs, slog.String("span_id", spanID))
	}
	logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

// SetTracingEnabled sets TracingEnabled. The span and event functions in
// this build do not consult it, so it does not silence their output;
// tracing is switched off entirely at compile time with -tags notrace.
func SetTracingEnabled(enabled bool) {
	TracingEnabled = enabled
}
