// Package compose plans external media-tool invocations. Planning is
// pure string and struct construction; nothing here touches the shell or
// the filesystem. Plans carry an argv, never a shell line, so quoting
// only matters inside the filter-graph argument where ffmpeg itself
// parses quotes.
package compose

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ershuai-acc/audio2video/internal/style"
)

// AspectProfile pairs a target frame size with the caption margin tuned
// for it. The pair is always selected together, never mixed.
type AspectProfile struct {
	Aspect  string
	Width   int
	Height  int
	MarginV int
}

var (
	portrait  = AspectProfile{Aspect: "9:16", Width: 1080, Height: 1920, MarginV: 60}
	landscape = AspectProfile{Aspect: "16:9", Width: 1920, Height: 1080, MarginV: 40}
)

// ProfileFor selects the profile for an aspect ratio string. Anything
// other than "16:9" gets the portrait profile, the service default.
func ProfileFor(aspect string) AspectProfile {
	if strings.TrimSpace(aspect) == "16:9" {
		return landscape
	}
	return portrait
}

// Request describes one composition: a still image looped under narrated
// audio, optionally with burned-in captions.
type Request struct {
	AudioPath    string
	ImagePath    string
	SubtitlePath string
	Subtitles    bool
	Aspect       string
	Style        style.Config
	OutputDir    string
	OutputBase   string
}

// CoverRequest describes one cover-image generation run.
type CoverRequest struct {
	Title     string
	Aspect    string
	Prompt    string
	OutputDir string
}

// CommandPlan is a complete external invocation: program, argv, and the
// artifact the run is expected to leave behind. The runner treats a
// missing artifact after a clean exit as its own failure class.
type CommandPlan struct {
	Program    string
	Args       []string
	OutputPath string
}

const (
	outputPrefix = "audio2video_"
	coverPrefix  = "cover_"

	portraitPromptTemplate  = "Vertical cover illustration for a short narrated video titled %q, bold readable title text, vivid colors, clean composition, 9:16"
	landscapePromptTemplate = "Widescreen cover illustration for a short narrated video titled %q, bold readable title text, vivid colors, clean composition, 16:9"
)

// Planner builds command plans against configured tool binaries.
type Planner struct {
	ffmpeg    string
	coverTool string
}

func NewPlanner(ffmpegPath, coverToolPath string) Planner {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if coverToolPath == "" {
		coverToolPath = "covergen"
	}
	return Planner{ffmpeg: ffmpegPath, coverTool: coverToolPath}
}

// Compose plans the still-image-plus-audio composition. The image is
// scaled to fit the target frame preserving its aspect ratio, padded to
// exact frame size centered, and captions are burned in when enabled and
// a subtitle path is present. -shortest caps the output at the audio
// length since the looped image has no duration of its own.
func (p Planner) Compose(req Request) CommandPlan {
	profile := ProfileFor(req.Aspect)

	vf := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2",
		profile.Width, profile.Height, profile.Width, profile.Height,
	)
	if req.Subtitles && req.SubtitlePath != "" {
		styleStr := style.BuildStyleString(req.Style, profile.MarginV)
		vf += fmt.Sprintf(",subtitles='%s':force_style='%s'",
			escapeFilterValue(req.SubtitlePath), escapeFilterValue(styleStr))
	}

	out := filepath.Join(req.OutputDir, OutputName(req.OutputBase))
	args := []string{
		"-y",
		"-loop", "1",
		"-i", req.ImagePath,
		"-i", req.AudioPath,
		"-vf", vf,
		"-c:v", "libx264",
		"-tune", "stillimage",
		"-r", "30",
		"-c:a", "aac",
		"-b:a", "192k",
		"-pix_fmt", "yuv420p",
		"-shortest",
		out,
	}
	return CommandPlan{Program: p.ffmpeg, Args: args, OutputPath: out}
}

// Cover plans the cover-image generation run. The output path is decided
// here, up front, and handed to the tool; the runner then checks that
// exact path instead of scanning the directory for whatever the tool
// happened to produce.
func (p Planner) Cover(req CoverRequest) CommandPlan {
	profile := ProfileFor(req.Aspect)

	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		tmpl := portraitPromptTemplate
		if profile.Aspect == "16:9" {
			tmpl = landscapePromptTemplate
		}
		prompt = fmt.Sprintf(tmpl, req.Title)
	}

	out := filepath.Join(req.OutputDir, coverPrefix+sanitizeBase(req.Title)+".png")
	args := []string{
		"--prompt", prompt,
		"--size", fmt.Sprintf("%dx%d", profile.Width, profile.Height),
		"--output", out,
	}
	return CommandPlan{Program: p.coverTool, Args: args, OutputPath: out}
}

// OutputName derives the video file name: branded prefix, sanitized base
// name, .mp4. An empty or fully unsafe base falls back to a unix
// timestamp so the name is never just the prefix.
func OutputName(base string) string {
	return outputPrefix + sanitizeBase(base) + ".mp4"
}

func sanitizeBase(base string) string {
	base = strings.TrimSuffix(base, filepath.Ext(base))
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), "_")
	if out == "" {
		out = strconv.FormatInt(time.Now().Unix(), 10)
	}
	return out
}

// escapeFilterValue escapes a string for embedding inside single quotes
// in an ffmpeg filter graph. Unescaped quotes in a path or style string
// would change the meaning of the whole filter argument.
func escapeFilterValue(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return s
}
