package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/tuilate/internal/model"
	"github.com/verte-zerg/tuilate/internal/notify"
	"github.com/verte-zerg/tuilate/internal/stats"
	"github.com/verte-zerg/tuilate/internal/status"
)

const (
	busyText          = "Translating..."
	busyPreloadedText = "Translating... Models are preloaded for faster translation."
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#60A5FA")).Bold(true)
	pairStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FBBF24"))
	overStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F87171"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#34D399"))
	paneStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A")).
			Padding(0, 1)
	cardStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
)

// View implements tea.Model.
func (m *Model) View() string {
	sections := []string{}
	if toasts := notify.Render(m.center.Items(), m.width); toasts != "" {
		sections = append(sections, toasts)
	}
	sections = append(sections,
		m.renderHeader(),
		paneStyle.Render(m.input.View()),
		m.renderCounter(),
		m.renderBusy(),
		paneStyle.Render(m.renderOutput()),
		m.renderSummary(),
		m.help.View(m.helpKeys()),
	)
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) renderHeader() string {
	label := "no language pairs"
	if m.pair != "" {
		label = fmt.Sprintf("%s (%s)", m.catalog.Label(m.pair), m.pair)
	}
	return titleStyle.Render("tuilate") + "  " + pairStyle.Render(label)
}

func (m *Model) renderCounter() string {
	line := m.counterState.String()
	switch {
	case m.counterState.Over:
		return overStyle.Render(line)
	case m.counterState.Near:
		return warningStyle.Render(line)
	default:
		return mutedStyle.Render(line)
	}
}

func (m *Model) renderBusy() string {
	if !m.controller.Busy() {
		return ""
	}
	return m.spinner.View() + " " + m.busyText()
}

func (m *Model) busyText() string {
	if snap, ok := m.poller.Snapshot(); ok && snap.HasLoadedModels() {
		return busyPreloadedText
	}
	return busyText
}

func (m *Model) renderOutput() string {
	if m.outputText == "" {
		return mutedStyle.Render("Translation will appear here.")
	}
	return m.output.View()
}

// helpKeys returns the key map with labels reflecting transient widget state.
func (m *Model) helpKeys() keyMap {
	keys := m.keys
	if m.copied {
		keys.Copy.SetHelp("ctrl+y", "Copied!")
	}
	if m.speaking {
		keys.Speak.SetHelp("ctrl+o", "Speaking...")
	}
	return keys
}

func (m *Model) renderSummary() string {
	s := m.controller.Stats()
	snap, hasSnap := m.poller.Snapshot()

	cards := []string{
		metricCard("Translations", strconv.Itoa(s.Count())),
		metricCard("Average", stats.FormatSeconds(s.Average())),
		metricCard("Fastest", s.FormatFastest()),
		metricCard("Slowest", stats.FormatSeconds(s.Slowest())),
		metricCard("Last", stats.FormatSeconds(s.Last())),
	}
	rows := []string{joinCards(cards, m.width)}
	rows = append(rows, renderServerStatus(snap, hasSnap, m.poller.LastError() != nil, m.catalog))
	if recent := s.Recent(); len(recent) > 1 {
		rows = append(rows, mutedStyle.Render("Recent: ")+stats.Sparkline(stats.Seconds(recent)))
	}
	return strings.Join(rows, "\n")
}

func renderServerStatus(snap status.Snapshot, ok, failing bool, catalog model.Catalog) string {
	if !ok {
		if failing {
			return overStyle.Render("Server status unavailable")
		}
		return mutedStyle.Render("Checking server status...")
	}
	gpu := mutedStyle.Render("Not available")
	if snap.GPUAvailable {
		gpu = okStyle.Render("Available")
	}
	line := fmt.Sprintf("GPU: %s  Loaded models: %d  Preloading: %d",
		gpu, len(snap.LoadedModels), len(snap.PreloadingModels))
	if snap.HasLoadedModels() {
		line += "\n" + mutedStyle.Render("Loaded: "+strings.Join(modelNames(snap.LoadedModels, catalog), ", "))
	}
	if failing {
		line += "  " + warningStyle.Render("(stale)")
	}
	return line
}

// modelNames labels entries that are catalog pair keys. Server model
// identifiers such as "Helsinki-NLP/opus-mt-en-fr" are shown verbatim.
func modelNames(models []string, catalog model.Catalog) []string {
	out := make([]string, len(models))
	for i, m := range models {
		if _, ok := catalog[m]; ok {
			out[i] = catalog.Label(m)
			continue
		}
		out[i] = m
	}
	return out
}

func joinCards(cards []string, width int) string {
	row := lipgloss.JoinHorizontal(lipgloss.Top, cards...)
	if width <= 0 || lipgloss.Width(row) <= width {
		return row
	}
	half := (len(cards) + 1) / 2
	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, cards[:half]...),
		lipgloss.JoinHorizontal(lipgloss.Top, cards[half:]...),
	)
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}
