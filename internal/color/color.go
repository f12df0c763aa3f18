// Package color provides terminal colour helpers on top of fatih/color.
// All functions return their input unchanged when colour is disabled; call
// Init once at program start.
package color

import (
	"os"

	fcolor "github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Init enables colour when stdout is a terminal, unless NO_COLOR is set or
// TERM is "dumb".
func Init() {
	SetEnabled(Detect(os.Getenv, os.Stdout.Fd()))
}

// Detect reports whether colour should be used for the terminal behind fd.
func Detect(getenv func(string) string, fd uintptr) bool {
	if getenv("NO_COLOR") != "" || getenv("TERM") == "dumb" {
		return false
	}
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// SetEnabled forces colour on or off.
func SetEnabled(on bool) {
	fcolor.NoColor = !on
}

// Enabled reports whether colour output is on.
func Enabled() bool {
	return !fcolor.NoColor
}

func paint(s string, attrs ...fcolor.Attribute) string {
	if s == "" || fcolor.NoColor {
		return s
	}
	return fcolor.New(attrs...).Sprint(s)
}

func Bold(s string) string       { return paint(s, fcolor.Bold) }
func Dim(s string) string        { return paint(s, fcolor.Faint) }
func Red(s string) string        { return paint(s, fcolor.FgRed) }
func Green(s string) string      { return paint(s, fcolor.FgGreen) }
func Yellow(s string) string     { return paint(s, fcolor.FgYellow) }
func Cyan(s string) string       { return paint(s, fcolor.FgCyan) }
func BoldRed(s string) string    { return paint(s, fcolor.Bold, fcolor.FgRed) }
func BoldGreen(s string) string  { return paint(s, fcolor.Bold, fcolor.FgGreen) }
func BoldYellow(s string) string { return paint(s, fcolor.Bold, fcolor.FgYellow) }
