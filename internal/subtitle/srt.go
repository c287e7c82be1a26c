package subtitle

import (
	"strconv"
	"strings"
)

// RenderSRT serializes cues as SRT text: repeating blocks of
// index, "start --> end", text, blank line.
func RenderSRT(cues []Cue) string {
	var b strings.Builder
	for _, c := range cues {
		b.WriteString(strconv.Itoa(c.Index))
		b.WriteString("\n")
		b.WriteString(FormatTimestamp(c.StartMS))
		b.WriteString(" --> ")
		b.WriteString(FormatTimestamp(c.EndMS))
		b.WriteString("\n")
		b.WriteString(c.Text)
		b.WriteString("\n\n")
	}
	return b.String()
}

// SerializeSRT renders recognizer utterances directly as SRT. Utterances
// with empty trimmed text are skipped entirely; numbering stays gap-free
// over the emitted blocks.
func SerializeSRT(utts []Utterance) string {
	return RenderSRT(CuesFromUtterances(utts))
}
