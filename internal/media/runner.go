// Package media executes the command plans built by compose and probes
// media files. This is the only place in the service that spawns
// external processes. Plans run as an argv directly, never through a
// shell, so user-controlled titles and paths cannot alter the command.
package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/ershuai-acc/audio2video/internal/compose"
)

// ErrMissingArtifact means the tool exited zero but the artifact the
// plan promised is not on disk. Kept distinct from a non-zero exit
// because it points at a contract violation by the tool, not a reported
// failure.
var ErrMissingArtifact = errors.New("media: expected output artifact is missing")

// ToolError is a non-zero exit from an external tool, with its combined
// output preserved so the failure surfaces verbatim.
type ToolError struct {
	Tool   string
	Output string
	Err    error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s: %v", e.Tool, e.Err)
}

func (e *ToolError) Unwrap() error { return e.Err }

type ObserverFunc func(tool string, err error)

type Runner struct {
	observer ObserverFunc
}

func NewRunner(observer ObserverFunc) *Runner {
	return &Runner{observer: observer}
}

// Run executes a plan and verifies its expected artifact afterward. Tool
// output is folded into the error so upstream failures surface verbatim.
func (r *Runner) Run(ctx context.Context, plan compose.CommandPlan) error {
	cmd := exec.CommandContext(ctx, plan.Program, plan.Args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		toolErr := &ToolError{Tool: plan.Program, Output: string(out), Err: err}
		r.observe(plan.Program, toolErr)
		return toolErr
	}
	err = verifyArtifact(plan.OutputPath)
	r.observe(plan.Program, err)
	return err
}

func (r *Runner) observe(tool string, err error) {
	if r.observer != nil {
		r.observer(tool, err)
	}
}

func verifyArtifact(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%w: %s", ErrMissingArtifact, path)
	}
	return nil
}
