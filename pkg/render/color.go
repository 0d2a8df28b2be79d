package render

import (
	"io"

	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

const (
	colorGreen = "2"
	colorBlue  = "4"
	colorRed   = "1"
)

// Colorizer styles role headers and error lines. With the Ascii profile every
// method returns its input unchanged.
type Colorizer struct {
	profile termenv.Profile
}

func NewColorizer(profile termenv.Profile) *Colorizer {
	return &Colorizer{profile: profile}
}

// NoColor is a Colorizer that never emits escape sequences.
func NoColor() *Colorizer {
	return NewColorizer(termenv.Ascii)
}

// ForWriter returns an ANSI Colorizer when w is a terminal.
func ForWriter(w io.Writer) *Colorizer {
	if IsTerminal(w) {
		return NewColorizer(termenv.ANSI)
	}
	return NoColor()
}

func IsTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (c *Colorizer) bold(s string, color string) string {
	return c.profile.String(s).Bold().Foreground(c.profile.Color(color)).String()
}

func (c *Colorizer) User(s string) string      { return c.bold(s, colorGreen) }
func (c *Colorizer) Assistant(s string) string { return c.bold(s, colorBlue) }
func (c *Colorizer) System(s string) string    { return c.bold(s, colorBlue) }
func (c *Colorizer) Error(s string) string     { return c.bold(s, colorRed) }
func (c *Colorizer) Bold(s string) string      { return c.profile.String(s).Bold().String() }
