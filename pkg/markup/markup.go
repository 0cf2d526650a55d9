// Package markup converts the small formatting subset the model is
// prompted to use (bold, italics, inline code, line breaks) into HTML
// for the browser transcript.
package markup

import (
	"html"
	"regexp"
	"strings"
)

var (
	boldRe   = regexp.MustCompile(`\*\*(.+?)\*\*`)
	italicRe = regexp.MustCompile(`\*(.+?)\*`)
	codeRe   = regexp.MustCompile("`([^`]+)`")
)

// Render converts raw text to restricted HTML. Substitutions run in a
// fixed order: bold before italic so that `**a*b*c**` nests correctly,
// then inline code, then line breaks. Existing markup in the input is
// escaped first; the transcript is rendered into a real DOM, so model
// or user text must never be interpreted as HTML.
//
// Render is pure. Callers streaming a response must re-render the whole
// accumulated buffer on every chunk, since a marker opened in one chunk
// may close in a later one.
func Render(text string) string {
	s := html.EscapeString(text)
	s = boldRe.ReplaceAllString(s, "<strong>$1</strong>")
	s = italicRe.ReplaceAllString(s, "<em>$1</em>")
	s = codeRe.ReplaceAllString(s, "<code>$1</code>")
	s = strings.ReplaceAll(s, "\n", "<br>")
	return s
}
