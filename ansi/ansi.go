// Package ansi decodes byte streams containing ANSI SGR escape sequences
// into styled text runs. jj emits colorized output when invoked with
// --color always; this package turns that output into structured runs so
// panels can re-style or measure it without caring about escape bytes.
package ansi

import (
	"fmt"
	"strings"
)

// Style describes the SGR attributes active for a run of text.
// Fg and Bg are ANSI palette indices (0-255) or -1 when unset.
type Style struct {
	Fg        int
	Bg        int
	Bold      bool
	Dim       bool
	Italic    bool
	Underline bool
	Reverse   bool
}

// DefaultStyle is the style of text outside any escape sequence.
var DefaultStyle = Style{Fg: -1, Bg: -1}

// IsDefault reports whether the style carries no attributes.
func (s Style) IsDefault() bool {
	return s == DefaultStyle
}

// Run is a maximal stretch of text sharing one style.
type Run struct {
	Text  string
	Style Style
}

// Decode converts a byte stream with embedded SGR sequences into styled
// runs. Malformed or truncated escape sequences degrade to plain text for
// the offending stretch; the remainder of the stream is still decoded.
// Invalid UTF-8 is replaced with U+FFFD. Decode never fails.
func Decode(b []byte) []Run {
	s := strings.ToValidUTF8(string(b), "�")

	var runs []Run
	var buf strings.Builder
	style := DefaultStyle

	flush := func() {
		if buf.Len() > 0 {
			runs = append(runs, Run{Text: buf.String(), Style: style})
			buf.Reset()
		}
	}

	i := 0
	for i < len(s) {
		if s[i] != 0x1b {
			buf.WriteByte(s[i])
			i++
			continue
		}
		end, params, isSGR := consumeEscape(s, i)
		if end <= i {
			// Truncated escape at end of stream; drop it.
			break
		}
		if isSGR {
			next := applySGR(style, params)
			if next != style {
				flush()
				style = next
			}
		}
		// Non-SGR escapes (cursor movement, OSC titles) carry no text
		// styling and are skipped entirely.
		i = end
	}
	flush()
	return runs
}

// Strip removes all escape sequences, returning plain text.
func Strip(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	i := 0
	for i < len(s) {
		if s[i] != 0x1b {
			b.WriteByte(s[i])
			i++
			continue
		}
		end, _, _ := consumeEscape(s, i)
		if end <= i {
			break
		}
		i = end
	}
	return b.String()
}

// consumeEscape scans the escape sequence starting at i (s[i] == ESC).
// It returns the index just past the sequence, the raw parameter string
// for CSI sequences, and whether the sequence is an SGR ("m" final byte).
// A sequence truncated by end-of-input returns end == i.
func consumeEscape(s string, i int) (end int, params string, isSGR bool) {
	j := i + 1
	if j >= len(s) {
		return i, "", false
	}
	switch s[j] {
	case '[': // CSI
		j++
		start := j
		for j < len(s) {
			c := s[j]
			if c >= 0x40 && c <= 0x7e {
				return j + 1, s[start:j], c == 'm'
			}
			j++
		}
		return i, "", false
	case ']': // OSC, terminated by BEL or ST
		j++
		for j < len(s) {
			if s[j] == 0x07 {
				return j + 1, "", false
			}
			if s[j] == 0x1b && j+1 < len(s) && s[j+1] == '\\' {
				return j + 2, "", false
			}
			j++
		}
		return i, "", false
	default:
		// Two-byte escape (RIS, charset selection, ...).
		return j + 1, "", false
	}
}

// applySGR folds a CSI parameter string into a style. Unknown parameters
// are ignored rather than treated as errors, so output from newer jj
// versions degrades gracefully.
func applySGR(style Style, params string) Style {
	if params == "" {
		return DefaultStyle
	}
	codes := strings.Split(params, ";")
	for k := 0; k < len(codes); k++ {
		n, err := atoiSafe(codes[k])
		if err != nil {
			continue
		}
		switch {
		case n == 0:
			style = DefaultStyle
		case n == 1:
			style.Bold = true
		case n == 2:
			style.Dim = true
		case n == 3:
			style.Italic = true
		case n == 4:
			style.Underline = true
		case n == 7:
			style.Reverse = true
		case n == 22:
			style.Bold, style.Dim = false, false
		case n == 23:
			style.Italic = false
		case n == 24:
			style.Underline = false
		case n == 27:
			style.Reverse = false
		case n >= 30 && n <= 37:
			style.Fg = n - 30
		case n == 38:
			if v, skip, ok := extended(codes, k); ok {
				style.Fg = v
				k += skip
			}
		case n == 39:
			style.Fg = -1
		case n >= 40 && n <= 47:
			style.Bg = n - 40
		case n == 48:
			if v, skip, ok := extended(codes, k); ok {
				style.Bg = v
				k += skip
			}
		case n == 49:
			style.Bg = -1
		case n >= 90 && n <= 97:
			style.Fg = n - 90 + 8
		case n >= 100 && n <= 107:
			style.Bg = n - 100 + 8
		}
	}
	return style
}

// extended handles 38;5;N (256-color) and 38;2;R;G;B (truecolor) forms.
// Truecolor is reduced to the nearest 256-color cube entry so Style stays
// a single palette index.
func extended(codes []string, k int) (color, skip int, ok bool) {
	if k+1 >= len(codes) {
		return 0, 0, false
	}
	mode, err := atoiSafe(codes[k+1])
	if err != nil {
		return 0, 0, false
	}
	switch mode {
	case 5:
		if k+2 >= len(codes) {
			return 0, 0, false
		}
		n, err := atoiSafe(codes[k+2])
		if err != nil || n < 0 || n > 255 {
			return 0, 0, false
		}
		return n, 2, true
	case 2:
		if k+4 >= len(codes) {
			return 0, 0, false
		}
		r, err1 := atoiSafe(codes[k+2])
		g, err2 := atoiSafe(codes[k+3])
		b, err3 := atoiSafe(codes[k+4])
		if err1 != nil || err2 != nil || err3 != nil {
			return 0, 0, false
		}
		return cube256(r, g, b), 4, true
	}
	return 0, 0, false
}

func cube256(r, g, b int) int {
	scale := func(v int) int {
		if v < 0 {
			v = 0
		}
		if v > 255 {
			v = 255
		}
		return v * 5 / 255
	}
	return 16 + 36*scale(r) + 6*scale(g) + scale(b)
}

func atoiSafe(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("non-digit %q", c)
		}
		n = n*10 + int(c-'0')
		if n > 1<<20 {
			return 0, fmt.Errorf("parameter overflow")
		}
	}
	return n, nil
}
