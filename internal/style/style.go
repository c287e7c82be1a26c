// Package style converts declarative caption styling into the ASS
// force_style grammar understood by ffmpeg's subtitles filter.
package style

import (
	"fmt"
	"strings"
)

const fontName = "Arial"

// Defaults applied by Config.withDefaults.
const (
	DefaultFontSize     = 24
	DefaultFontColor    = "#FFFFFF"
	DefaultOutlineColor = "#000000"
	DefaultOutlineWidth = 2
)

// Config describes caption styling as submitted by the caller. Zero
// values take the documented defaults.
type Config struct {
	FontSize     int
	FontColor    string
	OutlineColor string
	OutlineWidth int
}

func (c Config) withDefaults() Config {
	if c.FontSize <= 0 {
		c.FontSize = DefaultFontSize
	}
	if strings.TrimSpace(c.FontColor) == "" {
		c.FontColor = DefaultFontColor
	}
	if strings.TrimSpace(c.OutlineColor) == "" {
		c.OutlineColor = DefaultOutlineColor
	}
	if c.OutlineWidth <= 0 {
		c.OutlineWidth = DefaultOutlineWidth
	}
	return c
}

// CSSColorToASS converts a #RRGGBB color to the ASS &H00BBGGRR token.
// Input already carrying the &H prefix passes through unchanged, so the
// conversion is idempotent. The contract requires exactly six hex digits
// after the #; shorter input yields a malformed but non-crashing token
// rather than a guessed correction.
func CSSColorToASS(color string) string {
	color = strings.TrimSpace(color)
	if strings.HasPrefix(color, "&H") {
		return color
	}
	hexv := strings.TrimPrefix(color, "#")
	r := slice2(hexv, 0)
	g := slice2(hexv, 2)
	b := slice2(hexv, 4)
	return "&H00" + strings.ToUpper(b+g+r)
}

func slice2(s string, i int) string {
	if i >= len(s) {
		return ""
	}
	if i+2 > len(s) {
		return s[i:]
	}
	return s[i : i+2]
}

// BuildStyleString composes the ASS style descriptor for burn-in
// captions: fixed font, bottom-center alignment, no shadow, with the
// vertical margin taken from the selected aspect profile.
func BuildStyleString(cfg Config, marginV int) string {
	cfg = cfg.withDefaults()
	return fmt.Sprintf(
		"FontName=%s,FontSize=%d,PrimaryColour=%s,OutlineColour=%s,Outline=%d,Shadow=0,Alignment=2,MarginV=%d",
		fontName,
		cfg.FontSize,
		CSSColorToASS(cfg.FontColor),
		CSSColorToASS(cfg.OutlineColor),
		cfg.OutlineWidth,
		marginV,
	)
}
