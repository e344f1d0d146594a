// Package telnet serves the game's text client over Telnet with ANSI styling.
package telnet

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// SGR escapes used by the game's renderer.
const (
	Reset = "\033[0m"
	Bold  = "\033[1m"
	Dim   = "\033[2m"

	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Cyan   = "\033[36m"
	White  = "\033[37m"

	BrightRed     = "\033[91m"
	BrightGreen   = "\033[92m"
	BrightYellow  = "\033[93m"
	BrightBlue    = "\033[94m"
	BrightMagenta = "\033[95m"
	BrightCyan    = "\033[96m"
	BrightWhite   = "\033[97m"
)

// Colorize wraps text in style and a trailing Reset.
func Colorize(style, text string) string {
	return style + text + Reset
}

// Colorf is Colorize over a formatted string.
func Colorf(style, format string, args ...any) string {
	return style + fmt.Sprintf(format, args...) + Reset
}

// StripANSI removes CSI escape sequences (ESC '[' params final-byte), leaving
// the text a player would see.
func StripANSI(s string) string {
	if !strings.Contains(s, "\033[") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\033' || i+1 >= len(s) || s[i+1] != '[' {
			b.WriteByte(s[i])
			continue
		}
		j := i + 2
		for j < len(s) && (s[j] < 0x40 || s[j] > 0x7e) {
			j++
		}
		if j == len(s) {
			// Unterminated: keep it as text.
			b.WriteString(s[i:])
			break
		}
		i = j
	}
	return b.String()
}

// Width is the number of visible characters in s.
func Width(s string) int {
	return utf8.RuneCountInString(StripANSI(s))
}

// Pad right-pads styled text with spaces to width visible characters.
func Pad(s string, width int) string {
	if n := width - Width(s); n > 0 {
		return s + strings.Repeat(" ", n)
	}
	return s
}

// Gauge renders "cur/max" coloured green, yellow at half or below, and red
// at a quarter or below.
func Gauge(cur, max float64) string {
	style := Green
	switch {
	case max <= 0 || cur <= max/4:
		style = Red
	case cur <= max/2:
		style = Yellow
	}
	return Colorf(style, "%.0f/%.0f", cur, max)
}

// Hex returns the 24-bit foreground escape for a "#rrggbb" colour, the form
// alignment and relationship tiers report. Malformed input yields "".
func Hex(hex string) string {
	h := strings.TrimPrefix(hex, "#")
	if len(h) != 6 {
		return ""
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("\033[38;2;%d;%d;%dm", v>>16&0xff, v>>8&0xff, v&0xff)
}

// HexColorize wraps text in the colour hex, or returns text unchanged when hex is malformed.
func HexColorize(hex, text string) string {
	code := Hex(hex)
	if code == "" {
		return text
	}
	return code + text + Reset
}
