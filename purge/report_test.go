package purge_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/snykops/orgreap/purge"
	"github.com/snykops/orgreap/snykapi"
)

func TestSummarize(t *testing.T) {
	t.Parallel()

	started := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)

	t.Run("counts outcomes by status", func(t *testing.T) {
		t.Parallel()
		report := purge.RunReport{
			Plan: purge.Plan{Candidates: []snykapi.Organization{
				{ID: "id-1"}, {ID: "id-2"}, {ID: "id-3"},
			}},
			Outcomes: []purge.DeletionOutcome{
				{Organization: snykapi.Organization{ID: "id-1"}, Status: purge.StatusSucceeded},
				{Organization: snykapi.Organization{ID: "id-2"}, Status: purge.StatusFailed},
				{Organization: snykapi.Organization{ID: "id-3"}, Status: purge.StatusSucceeded},
			},
			StartedAt:  started,
			FinishedAt: started.Add(90 * time.Second),
		}

		summary := purge.Summarize(report)

		if summary.Succeeded != 2 || summary.Failed != 1 || summary.Skipped != 0 {
			t.Errorf("unexpected summary: %+v", summary)
		}
		if summary.Duration != 90*time.Second {
			t.Errorf("unexpected duration: %s", summary.Duration)
		}
	})

	t.Run("unprocessed candidates count as skipped", func(t *testing.T) {
		t.Parallel()
		report := purge.RunReport{
			Plan: purge.Plan{Candidates: []snykapi.Organization{
				{ID: "id-1"}, {ID: "id-2"}, {ID: "id-3"}, {ID: "id-4"},
			}},
			Outcomes: []purge.DeletionOutcome{
				{Organization: snykapi.Organization{ID: "id-1"}, Status: purge.StatusSucceeded},
				{Organization: snykapi.Organization{ID: "id-2"}, Status: purge.StatusFailed},
			},
			StartedAt:  started,
			FinishedAt: started.Add(time.Second),
		}

		summary := purge.Summarize(report)

		if summary.Skipped != 2 {
			t.Errorf("expected 2 skipped, got %d", summary.Skipped)
		}
	})
}

func TestWritePlan(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	purge.WritePlan(&out, purge.Plan{
		Protected: []snykapi.Organization{
			{ID: "id-a", Name: "orgA"},
		},
		Candidates: []snykapi.Organization{
			{ID: "id-b", Name: "orgB"},
			{ID: "id-c", Name: "orgC"},
		},
	})

	rendered := out.String()
	for _, want := range []string{
		"Total organizations: 3",
		"Protected:           1",
		"To delete:           2",
		"orgB (id-b)",
		"orgC (id-c)",
	} {
		if !strings.Contains(rendered, want) {
			t.Errorf("expected rendering to contain %q, got:\n%s", want, rendered)
		}
	}
	if strings.Contains(rendered, "orgA (id-a)") {
		t.Error("protected organizations must not be listed for deletion")
	}
}

func TestWriteSummary(t *testing.T) {
	t.Parallel()

	started := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	var out bytes.Buffer
	purge.WriteSummary(&out, purge.RunReport{
		Plan: purge.Plan{Candidates: []snykapi.Organization{{ID: "id-1"}, {ID: "id-2"}}},
		Outcomes: []purge.DeletionOutcome{
			{Organization: snykapi.Organization{ID: "id-1"}, Status: purge.StatusSucceeded},
			{Organization: snykapi.Organization{ID: "id-2"}, Status: purge.StatusFailed, Error: "boom"},
		},
		StartedAt:  started,
		FinishedAt: started.Add(time.Second),
	})

	rendered := out.String()
	for _, want := range []string{"Deleted:  1", "Failed:   1", "run log"} {
		if !strings.Contains(rendered, want) {
			t.Errorf("expected summary to contain %q, got:\n%s", want, rendered)
		}
	}
	if strings.Contains(rendered, "boom") {
		t.Error("failure detail belongs in the log, not the console summary")
	}
}
