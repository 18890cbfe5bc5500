// Package ansi renders pipe color markup ("|r", "|n", "||") to terminal
// escape sequences and provides ANSI-aware width, padding and wrapping.
package ansi

import (
	"strings"

	reflowansi "github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/padding"
	"github.com/muesli/reflow/wordwrap"
)

const (
	Reset     = "\033[0m"
	Hilite    = "\033[1m"
	Unhilite  = "\033[22m"
	Underline = "\033[4m"
	Blink     = "\033[5m"
	Inverse   = "\033[7m"
)

var colorDigits = map[byte]byte{
	'x': '0', 'r': '1', 'g': '2', 'y': '3',
	'b': '4', 'm': '5', 'c': '6', 'w': '7',
}

// Code maps a markup character to its escape sequence. Lowercase color
// letters are bright, uppercase are normal intensity.
func Code(ch byte) string {
	switch ch {
	case 'n', 'N':
		return Reset
	case 'h':
		return Hilite
	case 'H':
		return Unhilite
	case 'u', 'U':
		return Underline
	case 'f', 'F':
		return Blink
	case 'i', 'I':
		return Inverse
	}
	if d, ok := colorDigits[ch]; ok {
		return Hilite + "\033[3" + string(d) + "m"
	}
	if d, ok := colorDigits[ch+('a'-'A')]; ok && ch >= 'A' && ch <= 'Z' {
		return Unhilite + "\033[3" + string(d) + "m"
	}
	return ""
}

// Render converts markup in s. With color false the markup is removed
// along with any raw escape sequences already present.
func Render(s string, color bool) string {
	if !strings.ContainsRune(s, '|') {
		if color {
			return s
		}
		return StripEscapes(s)
	}
	var buf strings.Builder
	buf.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '|' || i+1 >= len(s) {
			buf.WriteByte(s[i])
			continue
		}
		next := s[i+1]
		switch next {
		case '|':
			buf.WriteByte('|')
		case '/':
			buf.WriteString("\r\n")
		case '-':
			buf.WriteByte('\t')
		case '_':
			buf.WriteByte(' ')
		default:
			code := Code(next)
			if code == "" {
				buf.WriteByte('|')
				continue
			}
			if color {
				buf.WriteString(code)
			}
		}
		i++
	}
	if color {
		return buf.String()
	}
	return StripEscapes(buf.String())
}

// Strip removes markup and escape sequences, leaving plain text.
func Strip(s string) string {
	return Render(s, false)
}

// StripEscapes removes ESC[...letter sequences.
func StripEscapes(s string) string {
	if !strings.ContainsRune(s, '\x1b') {
		return s
	}
	var buf strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\x1b' && i+1 < len(s) && s[i+1] == '[' {
			i += 2
			for i < len(s) && !((s[i] >= 'A' && s[i] <= 'Z') || (s[i] >= 'a' && s[i] <= 'z')) {
				i++
			}
			continue
		}
		buf.WriteByte(s[i])
	}
	return buf.String()
}

// Width returns the printable width of s, ignoring escape sequences.
func Width(s string) int {
	return reflowansi.PrintableRuneWidth(s)
}

// PadRight pads s with spaces to width printable columns.
func PadRight(s string, width int) string {
	if width <= 0 {
		return s
	}
	return padding.String(s, uint(width))
}

// WrapHanging word-wraps s to width columns and indents every line after
// the first by indent spaces.
func WrapHanging(s string, width, indent int) string {
	if width <= 0 || Width(s) <= width {
		return s
	}
	if indent >= width {
		indent = 0
	}
	first, rest, ok := splitFirstLine(wordwrap.String(s, width))
	if !ok {
		return first
	}
	pad := strings.Repeat(" ", indent)
	wrapped := wordwrap.String(strings.Join(strings.Fields(rest), " "), width-indent)
	lines := strings.Split(wrapped, "\n")
	for i, l := range lines {
		lines[i] = pad + l
	}
	return first + "\n" + strings.Join(lines, "\n")
}

func splitFirstLine(s string) (string, string, bool) {
	idx := strings.IndexByte(s, '\n')
	if idx < 0 {
		return s, "", false
	}
	return s[:idx], s[idx+1:], true
}
