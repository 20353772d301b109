// Package adapters isolates the wire protocols of the external scanning
// tools behind one uniform contract.
package adapters

import (
	"context"
	"errors"
	"time"

	"scanhub/pkg/models"
)

// ErrPollTimeout is returned when a polling phase exceeds its wall-clock ceiling
var ErrPollTimeout = errors.New("poll deadline exceeded")

// Outcome is the three-way result of one adapter run. Skipped=true with a
// nil error means the adapter was not applicable to this target or is
// disabled; a non-nil error from Run is a genuine transport, auth or
// timeout failure.
type Outcome struct {
	Findings []models.Finding
	Skipped  bool
}

func skipped() Outcome {
	return Outcome{Skipped: true}
}

// Adapter drives one external scanning tool against a target
type Adapter interface {
	// Name is the tool name as referenced by policies
	Name() string
	// Enabled reports whether the adapter has the configuration it needs.
	// A disabled adapter skips, it never fails the job.
	Enabled() bool
	// Run executes the tool. Findings come back already normalized:
	// canonical severity, OWASP tags, tool and target stamped.
	Run(ctx context.Context, target models.ScanTarget, policy models.ScanPolicy) (Outcome, error)
}

// Clock abstracts time so polling loops are testable without real timers
type Clock interface {
	Now() time.Time
	// Sleep waits for d or until the context is cancelled
	Sleep(ctx context.Context, d time.Duration) error
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// SystemClock is the real wall clock
var SystemClock Clock = systemClock{}

// PollPolicy bounds a fixed-interval polling loop
type PollPolicy struct {
	Interval time.Duration
	Timeout  time.Duration
}

// Poll invokes fn at fixed intervals until it reports done, returns an
// error, or the wall-clock ceiling elapses. Exceeding the ceiling returns
// ErrPollTimeout.
func Poll(ctx context.Context, clock Clock, policy PollPolicy, fn func() (bool, error)) error {
	deadline := clock.Now().Add(policy.Timeout)
	for {
		done, err := fn()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if !clock.Now().Add(policy.Interval).Before(deadline) {
			return ErrPollTimeout
		}
		if err := clock.Sleep(ctx, policy.Interval); err != nil {
			return err
		}
	}
}

// ProgressFunc receives coarse progress updates from a running adapter
type ProgressFunc func(models.ScanProgress)

type progressKey struct{}

// WithProgress attaches a progress callback to the context for one run
func WithProgress(ctx context.Context, fn ProgressFunc) context.Context {
	return context.WithValue(ctx, progressKey{}, fn)
}

// ReportProgress invokes the context's progress callback, if any
func ReportProgress(ctx context.Context, p models.ScanProgress) {
	if fn, ok := ctx.Value(progressKey{}).(ProgressFunc); ok && fn != nil {
		fn(p)
	}
}
