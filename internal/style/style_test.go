package style

import (
	"strings"
	"testing"
)

func TestCSSColorToASSReordersChannels(t *testing.T) {
	if got := CSSColorToASS("#FF00CC"); got != "&H00CC00FF" {
		t.Fatalf(`CSSColorToASS("#FF00CC") = %q`, got)
	}
	if got := CSSColorToASS("#ffffff"); got != "&H00FFFFFF" {
		t.Fatalf(`CSSColorToASS("#ffffff") = %q`, got)
	}
}

func TestCSSColorToASSIdempotent(t *testing.T) {
	if got := CSSColorToASS("&H00CC00FF"); got != "&H00CC00FF" {
		t.Fatalf("native token must pass through unchanged, got %q", got)
	}
}

func TestCSSColorToASSMalformedInputDoesNotPanic(t *testing.T) {
	// Short input yields a malformed token; the contract is non-crashing,
	// not corrected.
	got := CSSColorToASS("#FFF")
	if !strings.HasPrefix(got, "&H00") {
		t.Fatalf("unexpected token %q", got)
	}
}

func TestBuildStyleStringDefaults(t *testing.T) {
	got := BuildStyleString(Config{}, 60)
	want := "FontName=Arial,FontSize=24,PrimaryColour=&H00FFFFFF,OutlineColour=&H00000000,Outline=2,Shadow=0,Alignment=2,MarginV=60"
	if got != want {
		t.Fatalf("BuildStyleString() = %q, want %q", got, want)
	}
}

func TestBuildStyleStringCustomValues(t *testing.T) {
	got := BuildStyleString(Config{
		FontSize:     32,
		FontColor:    "#FF00CC",
		OutlineColor: "#112233",
		OutlineWidth: 4,
	}, 40)
	for _, part := range []string{"FontSize=32", "PrimaryColour=&H00CC00FF", "OutlineColour=&H00332211", "Outline=4", "MarginV=40", "Shadow=0", "Alignment=2"} {
		if !strings.Contains(got, part) {
			t.Fatalf("style string %q missing %q", got, part)
		}
	}
}
