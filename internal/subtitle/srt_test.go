package subtitle

import (
	"strings"
	"testing"
)

func TestSerializeSRTRenumbersOverBlankUtterances(t *testing.T) {
	out := SerializeSRT([]Utterance{
		{StartTimeMS: 0, EndTimeMS: 1000, Text: "a"},
		{StartTimeMS: 1000, EndTimeMS: 2000, Text: "  "},
		{StartTimeMS: 2000, EndTimeMS: 3000, Text: "b"},
	})
	want := "1\n00:00:00,000 --> 00:00:01,000\na\n\n" +
		"2\n00:00:02,000 --> 00:00:03,000\nb\n\n"
	if out != want {
		t.Fatalf("SerializeSRT() = %q, want %q", out, want)
	}
}

func TestSerializeSRTEmptyInput(t *testing.T) {
	if out := SerializeSRT(nil); out != "" {
		t.Fatalf("expected empty output, got %q", out)
	}
}

func TestUniformAllocationRoundTripsToSRT(t *testing.T) {
	cues, err := AllocateUniform("Hello\nWorld", 4000)
	if err != nil {
		t.Fatalf("AllocateUniform() error = %v", err)
	}
	out := RenderSRT(cues)
	want := "1\n00:00:00,000 --> 00:00:02,000\nHello\n\n" +
		"2\n00:00:02,000 --> 00:00:04,000\nWorld\n\n"
	if !strings.HasPrefix(out, want) {
		t.Fatalf("RenderSRT() = %q, want prefix %q", out, want)
	}
}
