package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// wrapText word-wraps text to width display cells. Existing newlines are
// kept and words wider than the line are broken.
func wrapText(text string, width int) string {
	if width <= 0 || text == "" {
		return text
	}
	paragraphs := strings.Split(text, "\n")
	for i, p := range paragraphs {
		paragraphs[i] = wrapParagraph([]rune(p), width)
	}
	return strings.Join(paragraphs, "\n")
}

func wrapParagraph(runes []rune, width int) string {
	var out strings.Builder
	line := make([]rune, 0, width)
	lineWidth := 0
	lastSpaceIdx := -1

	for i := 0; i < len(runes); {
		r := runes[i]
		w := runewidth.RuneWidth(r)
		if lineWidth+w > width && len(line) > 0 {
			if lastSpaceIdx >= 0 {
				out.WriteString(string(line[:lastSpaceIdx]))
				out.WriteRune('\n')
				line = append([]rune{}, line[lastSpaceIdx+1:]...)
				lineWidth = runewidth.StringWidth(string(line))
				lastSpaceIdx = lastSpaceIndex(line)
			} else {
				out.WriteString(string(line))
				out.WriteRune('\n')
				line = line[:0]
				lineWidth = 0
				lastSpaceIdx = -1
			}
			continue
		}
		line = append(line, r)
		lineWidth += w
		if r == ' ' {
			lastSpaceIdx = len(line) - 1
		}
		i++
	}
	out.WriteString(string(line))
	return out.String()
}

func lastSpaceIndex(line []rune) int {
	for i := len(line) - 1; i >= 0; i-- {
		if line[i] == ' ' {
			return i
		}
	}
	return -1
}
