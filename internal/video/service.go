// Package video orchestrates one composition request end to end: store
// the uploads, derive timed cues, serialize the subtitle file, plan the
// ffmpeg invocation, and hand the plan to the runner.
package video

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ershuai-acc/audio2video/internal/compose"
	"github.com/ershuai-acc/audio2video/internal/style"
	"github.com/ershuai-acc/audio2video/internal/subtitle"
)

var (
	ErrNoAudio = errors.New("video: audio file is required")
	ErrNoImage = errors.New("video: image file is required")

	// ErrRecognizerUnavailable means no caption text was supplied and
	// the recognition backend cannot be called, usually because no
	// credential file was found at startup.
	ErrRecognizerUnavailable = errors.New("video: recognizer unavailable, missing credentials")
)

type Recognizer interface {
	Utterances(ctx context.Context, audioPath string) ([]subtitle.Utterance, int64, error)
}

type Prober interface {
	ProbeDurationMS(ctx context.Context, path string) (int64, error)
}

type Runner interface {
	Run(ctx context.Context, plan compose.CommandPlan) error
}

type Store interface {
	SaveUpload(originalName string, r io.Reader) (string, error)
	WriteSubtitle(content string) (string, error)
	VideoDir() string
}

type Service struct {
	recognizer     Recognizer
	prober         Prober
	runner         Runner
	store          Store
	planner        compose.Planner
	composeTimeout time.Duration
}

// New wires the service. recognizer may be nil when the service runs
// without gateway credentials; recognizer-mode requests then fail with
// ErrRecognizerUnavailable instead of panicking.
func New(recognizer Recognizer, prober Prober, runner Runner, store Store, planner compose.Planner, composeTimeout time.Duration) *Service {
	return &Service{
		recognizer:     recognizer,
		prober:         prober,
		runner:         runner,
		store:          store,
		planner:        planner,
		composeTimeout: composeTimeout,
	}
}

type CreateInput struct {
	Audio        io.Reader
	AudioName    string
	Image        io.Reader
	ImageName    string
	SubtitleText string
	Aspect       string
	Style        style.Config
	Subtitles    bool
}

type Timings struct {
	Captioning  time.Duration
	Composition time.Duration
	Total       time.Duration
}

type CreateResult struct {
	VideoPath    string
	SubtitlePath string
	DurationMS   int64
	CueCount     int
	Timings      Timings
}

// Create runs the full pipeline for one request.
func (s *Service) Create(ctx context.Context, in CreateInput) (CreateResult, error) {
	started := time.Now()

	if in.Audio == nil {
		return CreateResult{}, ErrNoAudio
	}
	if in.Image == nil {
		return CreateResult{}, ErrNoImage
	}

	audioPath, err := s.store.SaveUpload(in.AudioName, in.Audio)
	if err != nil {
		return CreateResult{}, err
	}
	imagePath, err := s.store.SaveUpload(in.ImageName, in.Image)
	if err != nil {
		return CreateResult{}, err
	}

	var (
		subtitlePath string
		durationMS   int64
		cueCount     int
	)
	captioningStarted := time.Now()
	if in.Subtitles {
		cues, dur, err := s.cues(ctx, audioPath, in.SubtitleText)
		if err != nil {
			return CreateResult{}, err
		}
		subtitlePath, err = s.store.WriteSubtitle(subtitle.RenderSRT(cues))
		if err != nil {
			return CreateResult{}, err
		}
		durationMS = dur
		cueCount = len(cues)
	}
	captioningDuration := time.Since(captioningStarted)

	plan := s.planner.Compose(compose.Request{
		AudioPath:    audioPath,
		ImagePath:    imagePath,
		SubtitlePath: subtitlePath,
		Subtitles:    in.Subtitles,
		Aspect:       in.Aspect,
		Style:        in.Style,
		OutputDir:    s.store.VideoDir(),
		OutputBase:   in.AudioName,
	})

	compositionStarted := time.Now()
	runCtx, cancel := context.WithTimeout(ctx, s.composeTimeout)
	defer cancel()
	if err := s.runner.Run(runCtx, plan); err != nil {
		return CreateResult{}, err
	}

	return CreateResult{
		VideoPath:    plan.OutputPath,
		SubtitlePath: subtitlePath,
		DurationMS:   durationMS,
		CueCount:     cueCount,
		Timings: Timings{
			Captioning:  captioningDuration,
			Composition: time.Since(compositionStarted),
			Total:       time.Since(started),
		},
	}, nil
}

type SubtitleInput struct {
	Audio     io.Reader
	AudioName string
	Text      string
}

type SubtitleResult struct {
	SRT        string
	CueCount   int
	DurationMS int64
}

// Subtitle produces SRT text for an uploaded audio clip without
// composing a video.
func (s *Service) Subtitle(ctx context.Context, in SubtitleInput) (SubtitleResult, error) {
	if in.Audio == nil {
		return SubtitleResult{}, ErrNoAudio
	}
	audioPath, err := s.store.SaveUpload(in.AudioName, in.Audio)
	if err != nil {
		return SubtitleResult{}, err
	}
	cues, dur, err := s.cues(ctx, audioPath, in.Text)
	if err != nil {
		return SubtitleResult{}, err
	}
	return SubtitleResult{
		SRT:        subtitle.RenderSRT(cues),
		CueCount:   len(cues),
		DurationMS: dur,
	}, nil
}

// cues derives timed cues for stored audio. Supplied text wins over the
// recognizer: each non-empty line gets an equal slice of the probed
// duration. Without text the recognizer's utterance timing is used as
// is.
func (s *Service) cues(ctx context.Context, audioPath, text string) ([]subtitle.Cue, int64, error) {
	if strings.TrimSpace(text) != "" {
		durationMS, err := s.prober.ProbeDurationMS(ctx, audioPath)
		if err != nil {
			return nil, 0, err
		}
		cues, err := subtitle.AllocateUniform(text, durationMS)
		if err != nil {
			return nil, 0, err
		}
		return cues, durationMS, nil
	}

	if s.recognizer == nil {
		return nil, 0, ErrRecognizerUnavailable
	}
	utts, durationMS, err := s.recognizer.Utterances(ctx, audioPath)
	if err != nil {
		return nil, 0, err
	}
	cues := subtitle.CuesFromUtterances(utts)
	if len(cues) == 0 {
		return nil, 0, fmt.Errorf("video: recognizer returned no caption text: %w", subtitle.ErrNoLines)
	}
	return cues, durationMS, nil
}
