// Package observability defines the structured-logging surface the adapter
// emits through. An Observer travels in the context; components that find one
// report request, stream, and tool lifecycle events, and stay silent otherwise.
package observability

import (
	"context"
	"fmt"
	"time"
)

// Observer provides leveled structured logging. Implementations must be safe
// for concurrent use.
type Observer interface {
	Trace(ctx context.Context, msg string, attrs ...Attribute)
	Debug(ctx context.Context, msg string, attrs ...Attribute)
	Info(ctx context.Context, msg string, attrs ...Attribute)
	Warn(ctx context.Context, msg string, attrs ...Attribute)
	Error(ctx context.Context, msg string, attrs ...Attribute)
}

// Attribute represents a key-value pair of event metadata.
type Attribute struct {
	Key   string
	Value interface{}
}

// String creates a string attribute
func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

// Int creates an integer attribute
func Int(key string, value int) Attribute {
	return Attribute{Key: key, Value: value}
}

// Bool creates a boolean attribute
func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration creates a duration attribute
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value}
}

// Error creates an attribute from an error value under the "error" key.
func Error(err error) Attribute {
	return Attribute{Key: "error", Value: fmt.Sprint(err)}
}
