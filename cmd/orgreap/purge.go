package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/juju/clock"
	"github.com/urfave/cli/v3"

	"github.com/snykops/orgreap/cmd/orgreap/internal/auditlog"
	"github.com/snykops/orgreap/cmd/orgreap/internal/config"
	"github.com/snykops/orgreap/purge"
	"github.com/snykops/orgreap/snykapi"
)

func purgeCmd() *cli.Command {
	return &cli.Command{
		Name:  "purge",
		Usage: "Delete every organization in a group except the excluded ones",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "token",
				Usage:    "Snyk API token",
				Required: true,
				Sources:  cli.EnvVars("SNYK_TOKEN"),
			},
			&cli.StringFlag{
				Name:     "group-id",
				Usage:    "Group whose organizations are in scope",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "exclusions",
				Usage:    "Path to a file of protected organization ids or names, one per line",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "region",
				Usage: "Snyk region",
				Value: snykapi.DefaultRegion,
			},
			&cli.StringFlag{
				Name:  "api-version",
				Usage: "REST API version",
				Value: snykapi.DefaultAPIVersion,
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Preview the plan without deleting anything",
			},
			&cli.StringFlag{
				Name:  "confirm",
				Usage: "Confirmation phrase, skips the interactive prompt (must still match exactly)",
			},
			&cli.StringFlag{
				Name:  "log-dir",
				Usage: "Directory for per-run audit logs",
				Value: "logs",
			},
		},
		Action: runPurge,
	}
}

type purgeOptions struct {
	Token          string
	GroupID        string
	ExclusionsPath string
	Region         string
	APIVersion     string
	Confirm        string
	LogDir         string
	DryRun         bool

	// The rest is injected so doPurge is testable without a terminal or
	// the real API.
	ConfigDir  string
	Output     io.Writer
	Prompter   purge.Prompter
	HTTPClient *http.Client
	Clock      clock.Clock
}

func runPurge(ctx context.Context, cmd *cli.Command) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	return doPurge(ctx, purgeOptions{
		Token:          cmd.String("token"),
		GroupID:        cmd.String("group-id"),
		ExclusionsPath: cmd.String("exclusions"),
		Region:         cmd.String("region"),
		APIVersion:     cmd.String("api-version"),
		Confirm:        cmd.String("confirm"),
		LogDir:         cmd.String("log-dir"),
		DryRun:         cmd.Bool("dry-run"),
		ConfigDir:      cwd,
		Output:         os.Stdout,
	})
}

func doPurge(ctx context.Context, opts purgeOptions) error {
	clk := opts.Clock
	if clk == nil {
		clk = clock.WallClock
	}

	cfg, err := config.Find(opts.ConfigDir)
	if err != nil {
		return err
	}

	baseURL, err := snykapi.ResolveRegion(opts.Region, cfg.Regions)
	if err != nil {
		return errors.Mark(err, purge.ErrConfiguration)
	}

	exclusions, err := purge.LoadExclusionsFile(opts.ExclusionsPath)
	if err != nil {
		return err
	}

	logger, logFile, err := auditlog.Open(opts.LogDir, clk.Now())
	if err != nil {
		return err
	}
	defer logFile.Close()

	fmt.Fprintf(opts.Output, "Run log: %s\n", logFile.Name())

	client, err := snykapi.New(snykapi.Config{
		BaseURL:    baseURL,
		Token:      opts.Token,
		APIVersion: opts.APIVersion,
		HTTPClient: opts.HTTPClient,
		Clock:      clk,
		Backoff:    cfg.ListBackoff(),
		Logger:     logger,
	})
	if err != nil {
		return errors.Mark(err, purge.ErrConfiguration)
	}

	self, err := client.VerifySelf(ctx)
	if err != nil {
		return errors.Wrap(err, "verifying token")
	}
	if self.Email != "" {
		fmt.Fprintf(opts.Output, "Token verified for %s\n", self.Email)
	} else {
		fmt.Fprintln(opts.Output, "Token verified")
	}

	prompter := opts.Prompter
	if prompter == nil {
		if opts.Confirm != "" {
			prompter = purge.StaticPrompter{Value: opts.Confirm}
		} else {
			prompter = purge.NewFormPrompter(purge.NewInteractiveRunner())
		}
	}

	mode := purge.ModeLive
	if opts.DryRun {
		mode = purge.ModeDryRun
	}

	runner := &purge.Runner{
		API:        client,
		Exclusions: exclusions,
		Gate:       purge.NewGate(opts.Output, prompter, logger),
		Executor:   purge.NewExecutor(client, cfg.RetryPolicy(), clk, logger),
		Clock:      clk,
		Logger:     logger,
		Out:        opts.Output,
	}

	_, err = runner.Run(ctx, purge.RunOptions{GroupID: opts.GroupID, Mode: mode})
	return err
}
