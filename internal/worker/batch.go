package worker

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Unit is one independent unit of work.
type Unit[T any] func(ctx context.Context) (T, error)

// RetryPolicy controls per-unit retries. Attempts are separated by a fixed
// delay; there is no backoff because the pause between waves already spaces
// out load on external services.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

// Options configures a batch run.
type Options struct {
	// Limit is the wave size: at most Limit units run concurrently, and a
	// wave must fully resolve before the next one starts.
	Limit int

	// WavePause is the fixed pause inserted between waves to respect
	// externally imposed rate limits.
	WavePause time.Duration

	Retry RetryPolicy
}

// Outcome is the terminal result of one unit: either a value or the error
// from its last attempt. Index correlates the outcome with the input unit.
type Outcome[T any] struct {
	Index    int
	Value    T
	Err      error
	Attempts int
}

// sleepFn is injectable so tests do not wait out real delays.
var sleepFn = func(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

// Run executes units in successive waves of size opts.Limit. Within a wave
// all units run concurrently; a unit failure never cancels its siblings.
// Each unit is retried up to Retry.MaxAttempts times. The returned slice has
// one outcome per input unit, in input order.
func Run[T any](ctx context.Context, units []Unit[T], opts Options) []Outcome[T] {
	return RunWithHook(ctx, units, opts, nil)
}

// RunWithHook is Run with a completion hook invoked once per unit as soon as
// its outcome is final. The hook may be called from multiple goroutines
// concurrently.
func RunWithHook[T any](ctx context.Context, units []Unit[T], opts Options, hook func(Outcome[T])) []Outcome[T] {
	outcomes := make([]Outcome[T], len(units))
	if len(units) == 0 {
		return outcomes
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 1
	}
	maxAttempts := opts.Retry.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	for waveStart := 0; waveStart < len(units); waveStart += limit {
		waveEnd := waveStart + limit
		if waveEnd > len(units) {
			waveEnd = len(units)
		}

		var wg sync.WaitGroup
		for i := waveStart; i < waveEnd; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				out := runUnit(ctx, units[idx], idx, maxAttempts, opts.Retry.Delay)
				outcomes[idx] = out
				if hook != nil {
					hook(out)
				}
			}(i)
		}
		wg.Wait()

		if waveEnd < len(units) {
			sleepFn(ctx, opts.WavePause)
		}
	}

	return outcomes
}

// runUnit drives one unit through its retry attempts. A panic inside the unit
// counts as a failed attempt rather than tearing down the batch.
func runUnit[T any](ctx context.Context, unit Unit[T], idx, maxAttempts int, delay time.Duration) Outcome[T] {
	out := Outcome[T]{Index: idx}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		out.Attempts = attempt
		value, err := attemptUnit(ctx, unit)
		if err == nil {
			out.Value = value
			out.Err = nil
			return out
		}
		out.Err = err

		if attempt < maxAttempts {
			sleepFn(ctx, delay)
		}
	}

	return out
}

func attemptUnit[T any](ctx context.Context, unit Unit[T]) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unit panicked: %v", r)
		}
	}()
	return unit(ctx)
}
