package subtitle

import "fmt"

// FormatTimestamp renders a millisecond offset as an SRT timestamp,
// HH:MM:SS,mmm. Negative input clamps to zero. Hours past 99 widen the
// field instead of wrapping; source material is short-form narration, so
// in practice the field stays two digits.
func FormatTimestamp(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	h := ms / 3_600_000
	m := ms % 3_600_000 / 60_000
	s := ms % 60_000 / 1_000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms%1_000)
}
