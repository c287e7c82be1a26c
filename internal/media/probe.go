package media

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

type Prober struct {
	ffprobe string
}

func NewProber(ffprobePath string) *Prober {
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Prober{ffprobe: ffprobePath}
}

// ProbeDurationMS returns the duration of a media file in milliseconds.
func (p *Prober) ProbeDurationMS(ctx context.Context, path string) (int64, error) {
	cmd := exec.CommandContext(ctx, p.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration: %w\n%s", err, string(out))
	}
	return parseDurationMS(string(out))
}

func parseDurationMS(out string) (int64, error) {
	s := strings.TrimSpace(out)
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	return int64(sec * 1000), nil
}
