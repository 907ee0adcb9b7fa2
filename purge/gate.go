package purge

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/charmbracelet/huh"
)

// Mode selects whether a run may delete anything.
type Mode int

const (
	ModeDryRun Mode = iota
	ModeLive
)

func (m Mode) String() string {
	if m == ModeDryRun {
		return "dry-run"
	}
	return "live"
}

// GateResult is the confirmation gate's decision.
type GateResult int

const (
	GateProceed GateResult = iota
	GateAbort
)

// ConfirmationToken returns the phrase the operator must type to proceed.
// The match is byte-exact; a reflexive "yes" or a bare Enter must never
// trigger deletion.
func ConfirmationToken(candidates int) string {
	return fmt.Sprintf("DELETE %d ORGANIZATIONS", candidates)
}

// Prompter supplies the operator's confirmation input.
type Prompter interface {
	Prompt(title, description string) (string, error)
}

// FormRunner runs a huh form. The indirection keeps the gate testable:
// tests drive the form from byte buffers instead of a terminal.
type FormRunner interface {
	Run(form *huh.Form) error
}

// InteractiveRunner runs the form against the terminal.
type InteractiveRunner struct{}

func NewInteractiveRunner() *InteractiveRunner { return &InteractiveRunner{} }

func (r *InteractiveRunner) Run(form *huh.Form) error { return form.Run() }

// AccessibleRunner runs the form in accessible mode against the given
// reader and writer.
type AccessibleRunner struct {
	output io.Writer
	input  io.Reader
}

func NewAccessibleRunner(output io.Writer, input io.Reader) *AccessibleRunner {
	return &AccessibleRunner{output: output, input: input}
}

func (r *AccessibleRunner) Run(form *huh.Form) error {
	return form.
		WithAccessible(true).
		WithOutput(r.output).
		WithInput(r.input).
		Run()
}

// FormPrompter asks for the confirmation phrase with a huh input.
type FormPrompter struct {
	runner FormRunner
}

func NewFormPrompter(runner FormRunner) *FormPrompter {
	return &FormPrompter{runner: runner}
}

func (p *FormPrompter) Prompt(title, description string) (string, error) {
	var value string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(title).
				Description(description).
				Value(&value),
		),
	)
	if err := p.runner.Run(form); err != nil {
		return "", err
	}
	return value, nil
}

// StaticPrompter returns a fixed value, for the non-interactive --confirm
// flag. The value still has to match the token byte for byte.
type StaticPrompter struct {
	Value string
}

func (p StaticPrompter) Prompt(title, description string) (string, error) {
	return p.Value, nil
}

// Gate blocks progression from plan to execution until the operator
// supplies the exact confirmation phrase.
type Gate struct {
	out      io.Writer
	prompter Prompter
	logger   *slog.Logger
}

func NewGate(out io.Writer, prompter Prompter, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Gate{out: out, prompter: prompter, logger: logger}
}

// Confirm decides whether the run proceeds to execution. Dry runs always
// proceed; the caller stops after reporting and never reaches the
// executor. A live run with nothing to delete aborts, since there is
// nothing to confirm. The gate itself never performs deletion.
func (g *Gate) Confirm(plan Plan, mode Mode) (GateResult, error) {
	if mode == ModeDryRun {
		g.logger.Info("confirmation gate", "mode", mode.String(), "decision", "proceed")
		return GateProceed, nil
	}

	if len(plan.Candidates) == 0 {
		fmt.Fprintln(g.out, "No organizations to delete; all organizations are protected.")
		g.logger.Info("confirmation gate", "mode", mode.String(), "decision", "abort",
			"reason", "no candidates")
		return GateAbort, nil
	}

	fmt.Fprintf(g.out, "\nWARNING: you are about to delete %d organizations. This cannot be undone.\n",
		len(plan.Candidates))

	token := ConfirmationToken(len(plan.Candidates))
	input, err := g.prompter.Prompt(
		fmt.Sprintf("Type %q to confirm", token),
		fmt.Sprintf("%d protected, %d to delete", len(plan.Protected), len(plan.Candidates)),
	)
	if err != nil {
		g.logger.Error("confirmation prompt failed", "error", err.Error())
		return GateAbort, err
	}

	if input != token {
		fmt.Fprintln(g.out, "Confirmation did not match; aborting.")
		g.logger.Info("confirmation gate", "mode", mode.String(), "decision", "abort",
			"reason", "token mismatch")
		return GateAbort, nil
	}

	g.logger.Info("confirmation gate", "mode", mode.String(), "decision", "proceed")
	return GateProceed, nil
}
