// Package cover generates cover images through the external image tool.
package cover

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ershuai-acc/audio2video/internal/compose"
)

var ErrNoTitle = errors.New("cover: title or prompt is required")

type Runner interface {
	Run(ctx context.Context, plan compose.CommandPlan) error
}

type Service struct {
	runner  Runner
	planner compose.Planner
	outDir  string
	timeout time.Duration
}

func New(runner Runner, planner compose.Planner, outDir string, timeout time.Duration) *Service {
	return &Service{runner: runner, planner: planner, outDir: outDir, timeout: timeout}
}

type Input struct {
	Title  string
	Aspect string
	Prompt string
}

type Result struct {
	ImagePath string
}

// Generate plans and runs one cover-image invocation. The plan fixes the
// output path before the tool runs, so success is verified against that
// exact path rather than by scanning the directory.
func (s *Service) Generate(ctx context.Context, in Input) (Result, error) {
	if strings.TrimSpace(in.Title) == "" && strings.TrimSpace(in.Prompt) == "" {
		return Result{}, ErrNoTitle
	}

	plan := s.planner.Cover(compose.CoverRequest{
		Title:     in.Title,
		Aspect:    in.Aspect,
		Prompt:    in.Prompt,
		OutputDir: s.outDir,
	})

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.runner.Run(ctx, plan); err != nil {
		return Result{}, err
	}
	return Result{ImagePath: plan.OutputPath}, nil
}
