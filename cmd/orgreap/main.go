package main

import (
	"context"
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/urfave/cli/v3"

	"github.com/snykops/orgreap/purge"
)

// Version is set via ldflags at build time.
var Version = "dev"

func main() {
	cmd := &cli.Command{
		Name:    "orgreap",
		Usage:   "Bulk-delete the organizations of a Snyk group, protecting an exclusion list",
		Version: Version,
		Commands: []*cli.Command{
			purgeCmd(),
			regionsCmd(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps run outcomes to distinct codes for scripting: 2 for a gate
// abort, 3 for a completed run with failed deletions, 1 for everything
// else (configuration, listing, verification).
func exitCode(err error) int {
	switch {
	case errors.Is(err, purge.ErrAborted):
		return 2
	case errors.Is(err, purge.ErrDeletionsFailed):
		return 3
	default:
		return 1
	}
}
