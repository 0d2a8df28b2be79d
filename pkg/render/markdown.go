package render

import (
	"regexp"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/glamour"
	"github.com/pkg/errors"
)

type Renderer string

const (
	RendererHighlight Renderer = "highlight"
	RendererGlamour   Renderer = "glamour"
	RendererNone      Renderer = "none"
)

const (
	DefaultHighlightStyle = "github-dark"
	DefaultGlamourStyle   = "dark"
)

var (
	multiLineCode  = regexp.MustCompile("(?s)```.*?\n")
	singleLineCode = regexp.MustCompile("`(.*?)`")
)

// Highlighter colours markdown with chroma and then removes the code fences
// and inline backticks, leaving highlighted code in place.
type Highlighter struct {
	Style     string
	Formatter string
}

func NewHighlighter(style string) *Highlighter {
	if style == "" {
		style = DefaultHighlightStyle
	}
	return &Highlighter{Style: style, Formatter: "terminal256"}
}

// Format highlights prose with the markdown lexer and each fenced block with
// the lexer of its language tag.
func (h *Highlighter) Format(text string) (string, error) {
	blocks, err := ExtractCodeBlocks(text)
	if err != nil {
		return "", errors.Wrap(err, "could not parse markdown")
	}

	var sb strings.Builder
	pos := 0
	for _, b := range blocks {
		if err := h.highlight(&sb, text[pos:b.Start], "markdown"); err != nil {
			return "", err
		}
		lang := b.Language
		if lang == "" {
			lang = "plaintext"
		}
		if err := h.highlight(&sb, b.Code, lang); err != nil {
			return "", err
		}
		pos = b.End
	}
	if err := h.highlight(&sb, text[pos:], "markdown"); err != nil {
		return "", err
	}

	return StripCodeMarkers(sb.String()), nil
}

func (h *Highlighter) highlight(sb *strings.Builder, text string, lexer string) error {
	if text == "" {
		return nil
	}
	err := quick.Highlight(sb, text, lexer, h.Formatter, h.Style)
	if err != nil {
		return errors.Wrapf(err, "could not highlight %s", lexer)
	}
	return nil
}

// StripCodeMarkers removes ``` fence lines (including the language tag) and
// unwraps `inline` code.
func StripCodeMarkers(text string) string {
	text = multiLineCode.ReplaceAllString(text, "")
	return singleLineCode.ReplaceAllString(text, "$1")
}

type GlamourRenderer struct {
	Style string
}

func NewGlamourRenderer(style string) *GlamourRenderer {
	if style == "" {
		style = DefaultGlamourStyle
	}
	return &GlamourRenderer{Style: style}
}

func (g *GlamourRenderer) Format(text string) (string, error) {
	styled, err := glamour.Render(text, g.Style)
	if err != nil {
		return "", errors.Wrap(err, "could not render markdown")
	}
	return strings.Trim(styled, "\n"), nil
}

// Plain returns text unchanged.
type Plain struct{}

func (Plain) Format(text string) (string, error) {
	return text, nil
}

// Formatter is satisfied by transcript.Formatter.
type Formatter interface {
	Format(text string) (string, error)
}

// NewFormatter picks a markdown formatter by name. style is passed to glamour
// or chroma, an empty style selects the default of each.
func NewFormatter(renderer Renderer, style string) (Formatter, error) {
	switch renderer {
	case "", RendererHighlight:
		// glamour styles are not chroma styles
		if style == DefaultGlamourStyle {
			style = ""
		}
		return NewHighlighter(style), nil
	case RendererGlamour:
		return NewGlamourRenderer(style), nil
	case RendererNone:
		return Plain{}, nil
	default:
		return nil, errors.Errorf("unknown markdown renderer: %s (should be one of %s, %s, %s)",
			renderer, RendererHighlight, RendererGlamour, RendererNone)
	}
}
