package ansi

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDecodeRedThenPlain(t *testing.T) {
	// A red "fail" followed by a reset and a plain "ok" must produce
	// exactly two runs with text preserved character-for-character.
	input := []byte("\x1b[31mfail\x1b[0mok")

	got := Decode(input)
	want := []Run{
		{Text: "fail", Style: Style{Fg: 1, Bg: -1}},
		{Text: "ok", Style: DefaultStyle},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Decode() mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodePlainPassthrough(t *testing.T) {
	got := Decode([]byte("no escapes here"))
	if len(got) != 1 {
		t.Fatalf("expected 1 run, got %d", len(got))
	}
	if got[0].Text != "no escapes here" {
		t.Errorf("text = %q", got[0].Text)
	}
	if !got[0].Style.IsDefault() {
		t.Errorf("style = %+v, want default", got[0].Style)
	}
}

func TestDecodeAttributes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Style
	}{
		{"bold", "\x1b[1mx", Style{Fg: -1, Bg: -1, Bold: true}},
		{"bold green", "\x1b[1;32mx", Style{Fg: 2, Bg: -1, Bold: true}},
		{"bright cyan", "\x1b[96mx", Style{Fg: 14, Bg: -1}},
		{"256 color", "\x1b[38;5;238mx", Style{Fg: 238, Bg: -1}},
		{"background", "\x1b[41mx", Style{Fg: -1, Bg: 1}},
		{"bg 256", "\x1b[48;5;238mx", Style{Fg: -1, Bg: 238}},
		{"underline", "\x1b[4mx", Style{Fg: -1, Bg: -1, Underline: true}},
		{"empty params reset", "\x1b[mx", DefaultStyle},
		{"truecolor reduced", "\x1b[38;2;255;0;0mx", Style{Fg: 196, Bg: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs := Decode([]byte(tt.input))
			if len(runs) != 1 {
				t.Fatalf("expected 1 run, got %d: %+v", len(runs), runs)
			}
			if runs[0].Style != tt.want {
				t.Errorf("style = %+v, want %+v", runs[0].Style, tt.want)
			}
			if runs[0].Text != "x" {
				t.Errorf("text = %q, want %q", runs[0].Text, "x")
			}
		})
	}
}

func TestDecodeTruncatedEscape(t *testing.T) {
	// A sequence cut off mid-stream must not eat the preceding text.
	runs := Decode([]byte("before\x1b[3"))
	if len(runs) != 1 || runs[0].Text != "before" {
		t.Errorf("runs = %+v, want single run %q", runs, "before")
	}
}

func TestDecodeMalformedParamsKeepText(t *testing.T) {
	// Garbage parameters are skipped; the text after the sequence
	// survives unchanged.
	runs := Decode([]byte("\x1b[x;ymtext"))
	var all string
	for _, r := range runs {
		all += r.Text
	}
	if all != "text" {
		t.Errorf("decoded text = %q, want %q", all, "text")
	}
}

func TestDecodeInvalidUTF8(t *testing.T) {
	runs := Decode([]byte{'o', 'k', 0xff, 0xfe})
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	if runs[0].Text != "ok��" {
		t.Errorf("text = %q, want invalid bytes replaced", runs[0].Text)
	}
}

func TestDecodeSkipsOSC(t *testing.T) {
	runs := Decode([]byte("\x1b]0;title\x07visible"))
	if len(runs) != 1 || runs[0].Text != "visible" {
		t.Errorf("runs = %+v, want single run %q", runs, "visible")
	}
}

func TestStrip(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"\x1b[31mfail\x1b[0mok", "failok"},
		{"plain", "plain"},
		{"\x1b[1;38;5;2ma\x1b[mb", "ab"},
		{"a\x1b]0;t\x07b", "ab"},
		{"trailing\x1b[", "trailing"},
	}
	for _, tt := range tests {
		if got := Strip(tt.input); got != tt.want {
			t.Errorf("Strip(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
