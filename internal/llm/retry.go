package llm

import (
	"context"
	"math/rand/v2"
	"time"
)

type outcomeKind int

const (
	outcomeRetryable outcomeKind = iota
	outcomeSuccess
	outcomeFatal
)

func (k outcomeKind) String() string {
	switch k {
	case outcomeRetryable:
		return "retryable"
	case outcomeSuccess:
		return "success"
	case outcomeFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// outcome is the result of a single attempt.
type outcome struct {
	kind   outcomeKind
	result *Result // set for outcomeSuccess
	status int     // zero when no response was received
	body   string

	// transportErr describes why no response was received.
	transportErr string

	// err is a caller-side error (bad headers, unbuildable request) that must
	// be returned rather than reported as a provider failure.
	err error
}

// retry calls attempt until it succeeds, returns a fatal outcome, or
// maxTrial attempts have been made. wait runs before every attempt. The
// returned count is the number of attempts made; the error is non-nil only
// if wait was interrupted by the context. An attempt that received no body
// inherits the body of the latest attempt that did.
func retry(ctx context.Context, maxTrial int, wait func(context.Context) error, attempt func(ctx context.Context, n int) outcome) (outcome, int, error) {
	var last outcome
	n := 0
	for n < maxTrial {
		if err := wait(ctx); err != nil {
			return last, n, err
		}
		n++
		o := attempt(ctx, n)
		if o.body == "" {
			o.body = last.body
		}
		last = o
		if last.kind != outcomeRetryable {
			return last, n, nil
		}
	}
	return last, n, nil
}

// jitterWait returns a wait function sleeping a uniform random duration in
// [0, limit).
func jitterWait(limit time.Duration) func(context.Context) error {
	return func(ctx context.Context) error {
		if limit <= 0 {
			return ctx.Err()
		}
		return sleepContext(ctx, time.Duration(rand.Int64N(int64(limit))))
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
