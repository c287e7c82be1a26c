// Package subtitle turns recognizer output, or plain text plus a known
// duration, into time-coded cues and serializes them as SRT.
package subtitle

import (
	"errors"
	"strings"
)

// ErrNoLines is returned when the text given to AllocateUniform contains
// no non-empty lines to allocate time to.
var ErrNoLines = errors.New("subtitle: no non-empty lines in text")

// Utterance is a span of speech as reported by the recognition backend.
// Field tags match the backend's wire format, where times are in
// milliseconds from the start of the audio.
type Utterance struct {
	StartTimeMS int64  `json:"start_time"`
	EndTimeMS   int64  `json:"end_time"`
	Text        string `json:"text"`
}

// Cue is a serializer-ready utterance: trimmed text and a 1-based index
// assigned only to cues that survived empty-text filtering.
type Cue struct {
	Index   int
	StartMS int64
	EndMS   int64
	Text    string
}

// CuesFromUtterances converts recognizer utterances into cues, dropping
// utterances whose trimmed text is empty. Indices are contiguous from 1
// across the survivors, in input order.
func CuesFromUtterances(utts []Utterance) []Cue {
	cues := make([]Cue, 0, len(utts))
	for _, u := range utts {
		text := strings.TrimSpace(u.Text)
		if text == "" {
			continue
		}
		cues = append(cues, Cue{
			Index:   len(cues) + 1,
			StartMS: u.StartTimeMS,
			EndMS:   u.EndTimeMS,
			Text:    text,
		})
	}
	return cues
}

// AllocateUniform splits text into non-empty trimmed lines and gives each
// an equal slice of totalMS: line i of n spans
// [floor(i*D/n), floor((i+1)*D/n)). The boundaries tile [0, D) exactly,
// and the last cue always ends at D.
//
// This is a placeholder for forced alignment: per-line timing is a
// uniform guess, not derived from the audio. A real aligner can replace
// this function without changing callers, since the cue shape is the
// same either way.
func AllocateUniform(text string, totalMS int64) ([]Cue, error) {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	if len(lines) == 0 {
		return nil, ErrNoLines
	}

	n := int64(len(lines))
	cues := make([]Cue, len(lines))
	for i, line := range lines {
		cues[i] = Cue{
			Index:   i + 1,
			StartMS: int64(i) * totalMS / n,
			EndMS:   int64(i+1) * totalMS / n,
			Text:    line,
		}
	}
	return cues, nil
}
