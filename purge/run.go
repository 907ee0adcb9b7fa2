package purge

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/juju/clock"

	"github.com/snykops/orgreap/snykapi"
)

// ErrAborted marks a run stopped at the confirmation gate.
var ErrAborted = errors.New("aborted at confirmation gate")

// ErrDeletionsFailed marks a completed run in which at least one candidate
// was not deleted.
var ErrDeletionsFailed = errors.New("one or more deletions failed")

// Lister enumerates the organizations of a group.
type Lister interface {
	ListOrganizations(ctx context.Context, groupID string) ([]snykapi.Organization, error)
}

// API is the remote capability the pipeline consumes.
type API interface {
	Lister
	Deleter
}

// Runner wires the pipeline: list -> plan -> gate -> execute -> report.
// Each stage consumes only the prior stage's output; no stage re-enters an
// earlier one. The run owns the report exclusively; nothing touches it
// concurrently.
type Runner struct {
	API        API
	Exclusions *ExclusionSet
	Gate       *Gate
	Executor   *Executor
	Clock      clock.Clock
	Logger     *slog.Logger
	Out        io.Writer
}

// RunOptions selects what to run against.
type RunOptions struct {
	GroupID string
	Mode    Mode
}

// Run executes one full pipeline pass and returns the report. Listing
// errors abort the run before any destructive action. A gate abort returns
// ErrAborted; a run with failed or skipped deletions returns
// ErrDeletionsFailed alongside the report.
func (r *Runner) Run(ctx context.Context, opts RunOptions) (RunReport, error) {
	report := RunReport{StartedAt: r.Clock.Now()}

	r.Logger.Info("run started",
		"group_id", opts.GroupID,
		"mode", opts.Mode.String(),
		"exclusions", r.Exclusions.Len(),
	)

	orgs, err := r.API.ListOrganizations(ctx, opts.GroupID)
	if err != nil {
		return report, errors.Wrap(err, "listing organizations")
	}

	report.Plan = BuildPlan(orgs, r.Exclusions)
	r.logPlan(report.Plan)
	WritePlan(r.Out, report.Plan)

	result, err := r.Gate.Confirm(report.Plan, opts.Mode)
	if err != nil {
		report.FinishedAt = r.Clock.Now()
		return report, errors.Mark(errors.Wrap(err, "confirmation prompt"), ErrAborted)
	}
	if result != GateProceed {
		report.FinishedAt = r.Clock.Now()
		return report, ErrAborted
	}

	if opts.Mode == ModeDryRun {
		fmt.Fprintln(r.Out, "\nDry run: no organizations were deleted.")
		r.Logger.Info("dry run finished", "candidates", len(report.Plan.Candidates))
		report.FinishedAt = r.Clock.Now()
		return report, nil
	}

	report.Outcomes = r.Executor.Execute(ctx, report.Plan.Candidates)
	report.FinishedAt = r.Clock.Now()

	summary := Summarize(report)
	r.Logger.Info("run finished",
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
		"duration", summary.Duration.String(),
	)
	WriteSummary(r.Out, report)

	if summary.Failed > 0 || summary.Skipped > 0 {
		return report, ErrDeletionsFailed
	}
	return report, nil
}

func (r *Runner) logPlan(plan Plan) {
	for _, org := range plan.Protected {
		r.Logger.Info("planned", "decision", "protected", "org_id", org.ID, "org_name", org.Name)
	}
	for _, org := range plan.Candidates {
		r.Logger.Info("planned", "decision", "delete", "org_id", org.ID, "org_name", org.Name)
	}
}
