package groutine

import (
	"context"
	"runtime/pprof"
	"sync"
)

type ctxKey string

const goroutineNameKey ctxKey = "goroutine_name"

// Go starts a goroutine labelled with name for pprof and returns a channel
// closed when fn returns.
//
//	done := groutine.Go(ctx, "state-printer", func(ctx context.Context) {
//	    // work
//	})
//	<-done
//
// If parentCtx is nil, context.Background() is used.
func Go(parentCtx context.Context, name string, fn func(ctx context.Context)) <-chan struct{} {
	if parentCtx == nil {
		parentCtx = context.Background()
	}

	done := make(chan struct{})
	labels := pprof.Labels("goroutine_name", name)

	go pprof.Do(parentCtx, labels, func(ctx context.Context) {
		defer close(done)
		ctx = context.WithValue(ctx, goroutineNameKey, name)
		fn(ctx)
	})

	return done
}

// Result is the outcome of a blocking call run by Call.
type Result[T any] struct {
	Value T
	Err   error
}

// Call runs fn on a named goroutine and waits for it or for ctx. When ctx wins,
// fn keeps running in the background and its result is discarded; abandoned
// is invoked once fn finally returns, so callers can release what it produced.
func Call[T any](ctx context.Context, name string, fn func() (T, error), abandoned func(T, error)) (T, error) {
	resCh := make(chan Result[T], 1)
	var (
		mu   sync.Mutex
		gave bool
	)

	Go(ctx, name, func(context.Context) {
		v, err := fn()
		mu.Lock()
		defer mu.Unlock()
		if gave {
			if abandoned != nil {
				abandoned(v, err)
			}
			return
		}
		resCh <- Result[T]{Value: v, Err: err}
	})

	select {
	case res := <-resCh:
		return res.Value, res.Err
	case <-ctx.Done():
		mu.Lock()
		defer mu.Unlock()
		select {
		case res := <-resCh:
			return res.Value, res.Err
		default:
		}
		gave = true
		var zero T
		return zero, ctx.Err()
	}
}

// GetName retrieves the goroutine name from the context.
func GetName(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v := ctx.Value(goroutineNameKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
