package purge

import (
	"context"
	"log/slog"
	"time"

	"github.com/juju/clock"
	"github.com/juju/retry"

	"github.com/snykops/orgreap/snykapi"
)

// Status is the terminal state of one deletion.
type Status int

const (
	StatusSucceeded Status = iota
	StatusFailed
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return "skipped"
	}
}

// DeletionOutcome records what happened to a single candidate.
type DeletionOutcome struct {
	Organization snykapi.Organization
	Status       Status
	Attempts     int
	Error        string
	Note         string
	Timestamp    time.Time
}

// Deleter performs the destructive call for one organization.
type Deleter interface {
	DeleteOrganization(ctx context.Context, orgID string) error
}

// RetryPolicy bounds retries for a single candidate. Delays double per
// attempt with up to 50% jitter, capped at MaxDelay. Exact timing is not a
// correctness property; the bounds are.
type RetryPolicy struct {
	Attempts     int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// DefaultRetryPolicy returns the deletion retry policy used when the
// config file does not tune it.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts:     4,
		InitialDelay: time.Second,
		MaxDelay:     30 * time.Second,
	}
}

// Executor deletes candidates strictly sequentially. One organization's
// failure never blocks the others; the only run-wide stop is an auth
// failure, which would repeat for every remaining candidate.
type Executor struct {
	deleter Deleter
	policy  RetryPolicy
	clock   clock.Clock
	logger  *slog.Logger
}

func NewExecutor(deleter Deleter, policy RetryPolicy, clk clock.Clock, logger *slog.Logger) *Executor {
	if clk == nil {
		clk = clock.WallClock
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Executor{deleter: deleter, policy: policy, clock: clk, logger: logger}
}

// Execute deletes the candidates in order and returns one outcome per
// processed candidate, in candidate order. When a candidate fails with an
// auth failure the remaining candidates are not attempted and get no
// outcome; the reporter accounts for them as skipped.
func (e *Executor) Execute(ctx context.Context, candidates []snykapi.Organization) []DeletionOutcome {
	outcomes := make([]DeletionOutcome, 0, len(candidates))

	for _, org := range candidates {
		outcome, abort := e.deleteOne(ctx, org)
		outcomes = append(outcomes, outcome)

		e.logger.Info("deletion outcome",
			"org_id", org.ID,
			"org_name", org.Name,
			"status", outcome.Status.String(),
			"attempts", outcome.Attempts,
			"error", outcome.Error,
			"note", outcome.Note,
		)

		if abort {
			e.logger.Error("auth failure; aborting remaining deletions",
				"remaining", len(candidates)-len(outcomes))
			break
		}
		if ctx.Err() != nil {
			e.logger.Warn("run cancelled; aborting remaining deletions",
				"remaining", len(candidates)-len(outcomes))
			break
		}
	}

	return outcomes
}

func (e *Executor) deleteOne(ctx context.Context, org snykapi.Organization) (DeletionOutcome, bool) {
	var attempts int
	var lastErr error

	err := retry.Call(retry.CallArgs{
		Func: func() error {
			attempts++
			err := e.deleter.DeleteOrganization(ctx, org.ID)
			if err != nil {
				lastErr = err
			}
			return err
		},
		IsFatalError: func(err error) bool {
			return !snykapi.IsRetryable(err)
		},
		NotifyFunc: func(err error, attempt int) {
			e.logger.Warn("delete attempt failed",
				"org_id", org.ID, "attempt", attempt, "error", err.Error())
		},
		Attempts:    e.policy.Attempts,
		Delay:       e.policy.InitialDelay,
		BackoffFunc: retry.ExpBackoff(e.policy.InitialDelay, e.policy.MaxDelay, 2.0, true),
		Clock:       e.clock,
		Stop:        ctx.Done(),
	})

	outcome := DeletionOutcome{
		Organization: org,
		Attempts:     attempts,
		Timestamp:    e.clock.Now(),
	}

	if lastErr != nil && (retry.IsAttemptsExceeded(err) || retry.IsDurationExceeded(err) || retry.IsRetryStopped(err)) {
		err = lastErr
	}

	switch {
	case err == nil:
		outcome.Status = StatusSucceeded
	case snykapi.KindOf(err) == snykapi.KindNotFound:
		// Delete is idempotent from our perspective.
		outcome.Status = StatusSucceeded
		outcome.Note = "organization not found; treated as already deleted"
	case snykapi.KindOf(err) == snykapi.KindAuthFailure:
		outcome.Status = StatusFailed
		outcome.Error = err.Error()
		return outcome, true
	default:
		outcome.Status = StatusFailed
		outcome.Error = err.Error()
	}

	return outcome, false
}
