/*
Package checkbook defines the common interfaces shared by the redemption
engine, the nonce registries and the asset custodians, as well as
implementations of some of the simpler components (when interfaces would be
too much overhead).

We pass context through context.Context between the outer surface, the
engine and the custodians. To do so, checkbook defines some common keys to
store info, such as the logger. Each extension may add its own keys to
enrich the context with specific data.

There should exist two functions for every XYZ of type T that we want to
support in Context:

	WithXYZ(Context, T) Context
	GetXYZ(Context) (val T, ok bool)
*/
package checkbook

import (
	"context"

	"github.com/tendermint/tendermint/libs/log"
)

type contextKey int // local to this package

const (
	contextKeyLogger contextKey = iota
	contextKeyRequestID
)

var (
	// DefaultLogger is used for all context that have not
	// set anything themselves
	DefaultLogger = log.NewNopLogger()
)

// WithLogger sets the logger for this context
func WithLogger(ctx context.Context, logger log.Logger) context.Context {
	return context.WithValue(ctx, contextKeyLogger, logger)
}

// GetLogger returns the currently set logger, or
// DefaultLogger if none was set
func GetLogger(ctx context.Context) log.Logger {
	val, ok := ctx.Value(contextKeyLogger).(log.Logger)
	if !ok {
		return DefaultLogger
	}
	return val
}

// WithLogInfo accepts keyvalue pairs, and returns another
// context like this, after passing all the keyvals to the
// Logger
func WithLogInfo(ctx context.Context, keyvals ...interface{}) context.Context {
	logger := GetLogger(ctx).With(keyvals...)
	return WithLogger(ctx, logger)
}

// WithRequestID tags the context with an identifier of the redemption
// attempt. It is added to the logger as well.
func WithRequestID(ctx context.Context, id string) context.Context {
	ctx = context.WithValue(ctx, contextKeyRequestID, id)
	return WithLogInfo(ctx, "request", id)
}

// GetRequestID returns the identifier set with WithRequestID.
func GetRequestID(ctx context.Context) (string, bool) {
	val, ok := ctx.Value(contextKeyRequestID).(string)
	return val, ok
}
