package purge_test

import (
	"strings"
	"testing"

	"github.com/cockroachdb/errors"

	"github.com/snykops/orgreap/purge"
	"github.com/snykops/orgreap/snykapi"
)

func TestLoadExclusions(t *testing.T) {
	t.Parallel()

	t.Run("skips comments and blank lines", func(t *testing.T) {
		t.Parallel()
		input := "# protected orgs\n\norgA\n   \n  orgB  \n# trailing comment\n"

		set, err := purge.LoadExclusions(strings.NewReader(input))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if set.Len() != 2 {
			t.Fatalf("expected 2 entries, got %d", set.Len())
		}
		entries := set.Entries()
		if entries[0] != "orgA" || entries[1] != "orgB" {
			t.Errorf("unexpected entries: %v", entries)
		}
	})

	t.Run("deduplicates repeated entries", func(t *testing.T) {
		t.Parallel()
		set, err := purge.LoadExclusions(strings.NewReader("orgA\norgA\norgB\n"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if set.Len() != 2 {
			t.Errorf("expected 2 entries, got %d", set.Len())
		}
	})

	t.Run("empty set is a configuration error", func(t *testing.T) {
		t.Parallel()
		_, err := purge.LoadExclusions(strings.NewReader("# only comments\n\n"))
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if !errors.Is(err, purge.ErrConfiguration) {
			t.Errorf("expected configuration error, got %v", err)
		}
	})
}

func TestExclusionSetMatches(t *testing.T) {
	t.Parallel()

	set, err := purge.LoadExclusions(strings.NewReader("org-id-1\nPayments Team\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("matches by id", func(t *testing.T) {
		t.Parallel()
		org := snykapi.Organization{ID: "org-id-1", Name: "whatever"}
		if !set.Matches(org) {
			t.Error("expected match by id")
		}
	})

	t.Run("matches by name", func(t *testing.T) {
		t.Parallel()
		org := snykapi.Organization{ID: "other", Name: "Payments Team"}
		if !set.Matches(org) {
			t.Error("expected match by name")
		}
	})

	t.Run("no case-insensitive matching", func(t *testing.T) {
		t.Parallel()
		org := snykapi.Organization{ID: "other", Name: "payments team"}
		if set.Matches(org) {
			t.Error("expected no match for different case")
		}
	})

	t.Run("no substring matching", func(t *testing.T) {
		t.Parallel()
		org := snykapi.Organization{ID: "org-id-10", Name: "Payments Team EU"}
		if set.Matches(org) {
			t.Error("expected no match for substrings")
		}
	})
}
