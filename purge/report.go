package purge

import (
	"fmt"
	"io"
	"time"
)

// RunReport is the terminal artifact of a run. It is built incrementally
// by the runner and read-only once the run ends.
type RunReport struct {
	Plan       Plan
	Outcomes   []DeletionOutcome
	StartedAt  time.Time
	FinishedAt time.Time
}

// Summary aggregates the outcomes. Skipped counts candidates that were
// never attempted because the run aborted early, plus any outcome recorded
// as skipped.
type Summary struct {
	Succeeded int
	Failed    int
	Skipped   int
	Duration  time.Duration
}

// Summarize is pure aggregation over the report.
func Summarize(report RunReport) Summary {
	s := Summary{Duration: report.FinishedAt.Sub(report.StartedAt)}

	for _, outcome := range report.Outcomes {
		switch outcome.Status {
		case StatusSucceeded:
			s.Succeeded++
		case StatusFailed:
			s.Failed++
		case StatusSkipped:
			s.Skipped++
		}
	}

	if unprocessed := len(report.Plan.Candidates) - len(report.Outcomes); unprocessed > 0 {
		s.Skipped += unprocessed
	}

	return s
}

// WritePlan renders the deterministic preview of the plan.
func WritePlan(w io.Writer, plan Plan) {
	fmt.Fprintf(w, "Total organizations: %d\n", plan.Total())
	fmt.Fprintf(w, "Protected:           %d\n", len(plan.Protected))
	fmt.Fprintf(w, "To delete:           %d\n", len(plan.Candidates))

	if len(plan.Candidates) == 0 {
		return
	}

	fmt.Fprintln(w, "\nOrganizations to delete:")
	for _, org := range plan.Candidates {
		fmt.Fprintf(w, "  - %s (%s)\n", org.Name, org.ID)
	}
}

// WriteSummary renders the final counts. Per-organization failure detail
// lives in the run log, not the console, to keep this output scannable.
func WriteSummary(w io.Writer, report RunReport) {
	s := Summarize(report)

	fmt.Fprintln(w, "\nRun complete.")
	fmt.Fprintf(w, "  Deleted:  %d\n", s.Succeeded)
	fmt.Fprintf(w, "  Failed:   %d\n", s.Failed)
	fmt.Fprintf(w, "  Skipped:  %d\n", s.Skipped)
	fmt.Fprintf(w, "  Duration: %s\n", s.Duration.Round(time.Millisecond))

	if s.Failed > 0 || s.Skipped > 0 {
		fmt.Fprintln(w, "See the run log for per-organization failure detail.")
	}
}
