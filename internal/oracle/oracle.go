// Package oracle produces initial corridor snapshots and answers what-if
// questions. Snapshots come either from an LLM command-line tool or from a
// file on disk; both go through Admit before the engine sees them.
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/zulandar/railsection/internal/models"
)

// Source produces a raw corridor snapshot. The result has not been admitted:
// ids, deadlines and routes are filled in by Admit.
type Source interface {
	Snapshot(ctx context.Context) (*models.World, error)
}

// Runner sends a prompt to a text model and returns its reply.
type Runner interface {
	Run(ctx context.Context, prompt string) (string, error)
}

// CommandRunner runs a local CLI with the prompt as its final argument.
type CommandRunner struct {
	Command string
	Args    []string
	Timeout time.Duration
}

// Run executes the command and returns its standard output.
func (r CommandRunner) Run(ctx context.Context, prompt string) (string, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	binary := r.Command
	if binary == "" {
		binary = "claude"
	}
	args := append(slices.Clone(r.Args), prompt)

	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = 5 * time.Second

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("oracle: run %s: %w: %s", binary, err, msg)
		}
		return "", fmt.Errorf("oracle: run %s: %w", binary, err)
	}
	return string(out), nil
}

// ErrEmptyScenario is returned by WhatIf when no scenario text is given.
var ErrEmptyScenario = errors.New("oracle: scenario is required")

// Opts holds parameters for creating an Oracle.
type Opts struct {
	Runner Runner
	// Corridor is the section name used in the generation prompt.
	Corridor string
}

// Oracle generates snapshots and what-if assessments through a Runner.
type Oracle struct {
	runner   Runner
	corridor string
}

// New creates an Oracle.
func New(opts Opts) *Oracle {
	corridor := opts.Corridor
	if corridor == "" {
		corridor = DefaultCorridor
	}
	return &Oracle{runner: opts.Runner, corridor: corridor}
}

// Snapshot asks the model for a fresh corridor state.
func (o *Oracle) Snapshot(ctx context.Context) (*models.World, error) {
	reply, err := o.runner.Run(ctx, generationPrompt(o.corridor))
	if err != nil {
		return nil, fmt.Errorf("oracle: generate: %w", err)
	}
	w, err := decodeSnapshot(reply)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// WhatIf asks the model to assess a proposed controller action against the
// given world. The reply is returned as-is apart from surrounding whitespace.
func (o *Oracle) WhatIf(ctx context.Context, w *models.World, scenario string) (string, error) {
	scenario = strings.TrimSpace(scenario)
	if scenario == "" {
		return "", ErrEmptyScenario
	}
	prompt, err := whatIfPrompt(Project(w), scenario)
	if err != nil {
		return "", err
	}
	reply, err := o.runner.Run(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("oracle: what-if: %w", err)
	}
	return strings.TrimSpace(reply), nil
}

// decodeSnapshot parses a model reply, tolerating Markdown code fences.
func decodeSnapshot(reply string) (*models.World, error) {
	body := stripFences(reply)
	if body == "" {
		return nil, errors.New("oracle: decode snapshot: empty reply")
	}
	var w models.World
	if err := json.Unmarshal([]byte(body), &w); err != nil {
		return nil, fmt.Errorf("oracle: decode snapshot: %w", err)
	}
	return &w, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	// Drop the opening fence line, which may carry a language tag.
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		return ""
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// Bootstrap fetches a snapshot from src and admits it.
func Bootstrap(ctx context.Context, src Source, opts AdmitOpts) (*models.World, error) {
	raw, err := src.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return Admit(raw, opts), nil
}
