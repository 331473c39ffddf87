package engine

import (
	"context"
	"math/rand"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"golang.org/x/time/rate"
)

type PollingFunc func(context.Context) bool

// Poll is a Proc that polls a given function regularly.
// If the function returns true, it will be called again immediately.
func Poll(interval time.Duration, fn PollingFunc) Proc {
	return func(ctx context.Context) error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			if fn(ctx) {
				continue // take possible next item immediately
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
			ticker.Reset(time.Duration(float64(interval) * (0.9 + 0.2*rand.Float64())))
		}
	}
}

// WithRateLimiting rejects requests once the limiter runs out of tokens.
func WithRateLimiting(limiter *rate.Limiter, next Handler) Handler {
	return func(r *http.Request, ps httprouter.Params) Response {
		if !limiter.Allow() {
			return ClientErrorf(http.StatusTooManyRequests, "Too many requests - slow down")
		}
		return next(r, ps)
	}
}
