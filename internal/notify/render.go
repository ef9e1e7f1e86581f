package notify

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

const (
	maxToastWidth = 64
	maxToastLines = 3
	slideOffset   = 4
)

var (
	toastBase = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Padding(0, 1).
			MarginBottom(1)
	toastColors = map[Severity]lipgloss.Color{
		Info:    lipgloss.Color("#60A5FA"),
		Success: lipgloss.Color("#34D399"),
		Warning: lipgloss.Color("#FBBF24"),
		Error:   lipgloss.Color("#F87171"),
	}
	closeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
)

// Render draws the notification stack right-aligned within width.
func Render(items []Notification, width int) string {
	if len(items) == 0 {
		return ""
	}
	boxWidth := maxToastWidth
	if width > 0 && width-slideOffset < boxWidth {
		boxWidth = width - slideOffset
	}
	if boxWidth < 8 {
		boxWidth = 8
	}
	blocks := make([]string, 0, len(items))
	for _, n := range items {
		blocks = append(blocks, renderOne(n, boxWidth))
	}
	stack := lipgloss.JoinVertical(lipgloss.Right, blocks...)
	if width <= 0 {
		return stack
	}
	return lipgloss.PlaceHorizontal(width, lipgloss.Right, stack)
}

func renderOne(n Notification, boxWidth int) string {
	textWidth := boxWidth - 4
	lines := wrapMessage(n.Message, textWidth, maxToastLines)
	for i, line := range lines {
		line = runewidth.FillRight(line, textWidth)
		if i == 0 {
			line += " " + closeStyle.Render("×")
		} else {
			line += "  "
		}
		lines[i] = line
	}
	style := toastBase.Background(toastColors[n.Severity])
	if n.Phase != Visible {
		style = style.Faint(true).MarginRight(slideOffset)
	}
	return style.Render(strings.Join(lines, "\n"))
}

// wrapMessage word-wraps msg to width, keeping at most maxLines lines.
// Overflow is cut with an ellipsis on the last line.
func wrapMessage(msg string, width, maxLines int) []string {
	var lines []string
	current := ""
	for _, word := range strings.Fields(msg) {
		for runewidth.StringWidth(word) > width {
			if current != "" {
				lines = append(lines, current)
				current = ""
			}
			head := runewidth.Truncate(word, width, "")
			if head == "" {
				head = string([]rune(word)[:1])
			}
			lines = append(lines, head)
			word = word[len(head):]
		}
		switch {
		case word == "":
		case current == "":
			current = word
		case runewidth.StringWidth(current)+1+runewidth.StringWidth(word) <= width:
			current += " " + word
		default:
			lines = append(lines, current)
			current = word
		}
	}
	if current != "" || len(lines) == 0 {
		lines = append(lines, current)
	}
	if len(lines) > maxLines {
		rest := strings.Join(lines[maxLines-1:], " ")
		lines = lines[:maxLines]
		lines[maxLines-1] = runewidth.Truncate(rest, width, "…")
	}
	return lines
}

// SeverityStyle returns the foreground style for a severity label.
func SeverityStyle(s Severity) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(toastColors[s]).Bold(true)
}
