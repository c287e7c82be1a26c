// Package recognize wraps the speech gateway client with the service's
// timeout policy and normalizes its output into utterances.
package recognize

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ershuai-acc/audio2video/internal/subtitle"
	"github.com/ershuai-acc/audio2video/internal/upstream/speech"
)

type Client interface {
	Recognize(ctx context.Context, audio []byte) (speech.Result, error)
}

type Service struct {
	client  Client
	timeout time.Duration
}

func New(client Client, timeout time.Duration) *Service {
	return &Service{client: client, timeout: timeout}
}

// Utterances transcribes the audio file and returns timed utterances
// plus the audio duration in milliseconds. When the backend reports text
// but no per-utterance timing, the full text becomes a single utterance
// spanning the whole clip; downstream the uniform allocator handles the
// line splitting.
func (s *Service) Utterances(ctx context.Context, audioPath string) ([]subtitle.Utterance, int64, error) {
	audio, err := os.ReadFile(audioPath)
	if err != nil {
		return nil, 0, fmt.Errorf("recognize: read audio: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.client.Recognize(ctx, audio)
	if err != nil {
		return nil, 0, err
	}

	if len(result.Utterances) == 0 && strings.TrimSpace(result.Text) != "" {
		return []subtitle.Utterance{{
			StartTimeMS: 0,
			EndTimeMS:   result.DurationMS,
			Text:        strings.TrimSpace(result.Text),
		}}, result.DurationMS, nil
	}
	return result.Utterances, result.DurationMS, nil
}
