package tui

import (
	"regexp"
	"strings"

	"gemchat/pkg/transcript"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
)

// Inline marker patterns, resolved in the same order as the browser
// renderer: bold before italics so ** pairs are not eaten as two
// italic markers.
var (
	boldRe   = regexp.MustCompile(`\*\*(.+?)\*\*`)
	italicRe = regexp.MustCompile(`\*(.+?)\*`)
	codeRe   = regexp.MustCompile("`([^`]+)`")
)

// styleInline replaces formatting markers in one logical line with
// styled terminal text.
func styleInline(line string) string {
	line = boldRe.ReplaceAllStringFunc(line, func(m string) string {
		return boldStyle.Render(boldRe.FindStringSubmatch(m)[1])
	})
	line = italicRe.ReplaceAllStringFunc(line, func(m string) string {
		return italicStyle.Render(italicRe.FindStringSubmatch(m)[1])
	})
	line = codeRe.ReplaceAllStringFunc(line, func(m string) string {
		return codeStyle.Render(codeRe.FindStringSubmatch(m)[1])
	})
	return line
}

// renderBody styles and wraps a message body to the given width.
func renderBody(text string, width int) string {
	if width < 1 {
		width = 1
	}
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\t", "    ")

	var out []string
	for _, line := range strings.Split(normalized, "\n") {
		styled := styleInline(line)
		out = append(out, ansi.Wordwrap(styled, width, ""))
	}
	return strings.Join(out, "\n")
}

// renderEntry renders one transcript entry with its sender label.
func renderEntry(e transcript.Snapshot, width int) string {
	switch e.Sender {
	case transcript.SenderUser:
		return userLabelStyle.Render("You") + "\n" + renderBody(e.Text, width)
	case transcript.SenderError:
		return errorStyle.Render("Error: " + e.Text)
	default:
		return aiLabelStyle.Render("Gemini") + "\n" + renderBody(e.Text, width)
	}
}

// renderTranscript renders the whole transcript, entries separated by
// blank lines.
func renderTranscript(entries []transcript.Snapshot, width int) string {
	if len(entries) == 0 {
		return statusStyle.Render("Send a message to start the conversation.")
	}
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, renderEntry(e, width))
	}
	return strings.Join(parts, "\n\n")
}

func truncateToWidth(text string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(text) <= width {
		return text
	}
	return runewidth.Truncate(text, width, "…")
}
