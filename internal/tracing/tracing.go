package tracing

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// ContextKey represents keys used for context values
type ContextKey string

const (
	RequestIDKey ContextKey = "request_id"
	TraceIDKey   ContextKey = "trace_id"
	SpanIDKey    ContextKey = "span_id"
	StartTimeKey ContextKey = "start_time"
)

// RequestInfo bundles the per-request identifiers for log correlation.
type RequestInfo struct {
	RequestID string    `json:"request_id"`
	TraceID   string    `json:"trace_id"`
	SpanID    string    `json:"span_id"`
	StartTime time.Time `json:"start_time"`
}

// randomHex returns n random bytes hex-encoded, or a nanosecond timestamp
// with the given prefix when the random source fails.
func randomHex(n int, fallbackPrefix string) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%s%d", fallbackPrefix, time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}

// GenerateRequestID generates a unique request ID
func GenerateRequestID() string {
	return "req_" + randomHex(8, "")
}

// GenerateTraceID generates a unique trace ID
func GenerateTraceID() string {
	return randomHex(16, "trace_")
}

// GenerateSpanID generates a unique span ID
func GenerateSpanID() string {
	return randomHex(8, "span_")
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

func WithSpanID(ctx context.Context, spanID string) context.Context {
	return context.WithValue(ctx, SpanIDKey, spanID)
}

func WithStartTime(ctx context.Context, startTime time.Time) context.Context {
	return context.WithValue(ctx, StartTimeKey, startTime)
}

func stringValue(ctx context.Context, key ContextKey) string {
	v, _ := ctx.Value(key).(string)
	return v
}

// GetRequestID extracts the request ID from context
func GetRequestID(ctx context.Context) string {
	return stringValue(ctx, RequestIDKey)
}

// GetTraceID extracts the trace ID from context
func GetTraceID(ctx context.Context) string {
	return stringValue(ctx, TraceIDKey)
}

// GetSpanID extracts the span ID from context
func GetSpanID(ctx context.Context) string {
	return stringValue(ctx, SpanIDKey)
}

// GetStartTime extracts the start time from context
func GetStartTime(ctx context.Context) time.Time {
	t, _ := ctx.Value(StartTimeKey).(time.Time)
	return t
}

// GetRequestInfo extracts all tracing information from context
func GetRequestInfo(ctx context.Context) *RequestInfo {
	return &RequestInfo{
		RequestID: GetRequestID(ctx),
		TraceID:   GetTraceID(ctx),
		SpanID:    GetSpanID(ctx),
		StartTime: GetStartTime(ctx),
	}
}

// WithFullTracing stamps a context with fresh request, trace, and span IDs
// plus the current time.
func WithFullTracing(ctx context.Context) context.Context {
	ctx = WithRequestID(ctx, GenerateRequestID())
	ctx = WithTraceID(ctx, GenerateTraceID())
	ctx = WithSpanID(ctx, GenerateSpanID())
	return WithStartTime(ctx, time.Now())
}

// Duration reports the elapsed time since the context's start time, or zero
// when no start time was recorded.
func Duration(ctx context.Context) time.Duration {
	start := GetStartTime(ctx)
	if start.IsZero() {
		return 0
	}
	return time.Since(start)
}
