package service

import (
	"context"
	"time"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

type correlationKey struct{}

// WithCorrelationID attaches the id of the request that triggered a change.
// Events published by the services carry it.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationID returns the id set by WithCorrelationID, or ""
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

// Clock returns the current time
type Clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }
