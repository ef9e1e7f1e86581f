// Package statsui provides the Bubble Tea history interface.
package statsui

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/tuilate/internal/model"
	"github.com/verte-zerg/tuilate/internal/stats"
	"github.com/verte-zerg/tuilate/internal/store"
)

const (
	tabOverview = iota
	tabPairs
	tabRecent
)

const recentLimit = 50

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#60A5FA"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F87171"))
	failedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F87171"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Model implements the Bubble Tea history UI.
type Model struct {
	store   *store.Store
	cfg     model.HistoryConfig
	catalog model.Catalog

	report stats.Report
	errMsg string

	tabs      []string
	activeTab int
	viewports []viewport.Model
	pairTable table.Model

	width  int
	height int

	filterMode   bool
	filterInputs []textinput.Model
	filterIndex  int
	filterError  string
}

// NewModel constructs a history UI model. catalog may be nil when the
// service is unreachable; pair names then fall back to language names.
func NewModel(st *store.Store, cfg model.HistoryConfig, catalog model.Catalog) *Model {
	m := &Model{
		store:   st,
		cfg:     cfg,
		catalog: catalog,
		tabs:    []string{"Overview", "Pairs", "Recent"},
	}
	m.initInputs()
	m.pairTable = buildPairTable(nil, nil, 0, 1)
	m.initViewports()
	m.refreshReport()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || (!m.filterMode && msg.String() == "q") {
			return m, tea.Quit
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		switch msg.String() {
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "/":
			return m.startFilter()
		case "r":
			m.refreshReport()
			return m, nil
		case "g", "home":
			if m.activeTab == tabPairs {
				m.pairTable.GotoTop()
			} else {
				m.viewports[m.activeTab].GotoTop()
			}
			return m, nil
		case "G", "end":
			if m.activeTab == tabPairs {
				m.pairTable.GotoBottom()
			} else {
				m.viewports[m.activeTab].GotoBottom()
			}
			return m, nil
		default:
			var cmd tea.Cmd
			if m.activeTab == tabPairs {
				m.pairTable, cmd = m.pairTable.Update(msg)
				return m, cmd
			}
			m.viewports[m.activeTab], cmd = m.viewports[m.activeTab].Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) initViewports() {
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
}

func (m *Model) initInputs() {
	m.filterInputs = []textinput.Model{
		newFilterInput("Pair: "),
		newFilterInput("Since (YYYY-MM-DD): "),
		newFilterInput("Last: "),
	}
	m.setInputsFromConfig()
}

func newFilterInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) setInputsFromConfig() {
	m.filterInputs[0].SetValue(m.cfg.LangPair)
	if m.cfg.Since != nil {
		m.filterInputs[1].SetValue(m.cfg.Since.Format("2006-01-02"))
	} else {
		m.filterInputs[1].SetValue("")
	}
	if m.cfg.Last > 0 {
		m.filterInputs[2].SetValue(strconv.Itoa(m.cfg.Last))
	} else {
		m.filterInputs[2].SetValue("")
	}
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if !m.filterMode && m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, vpHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = vpHeight
	}
	m.pairTable.SetWidth(m.width)
	m.pairTable.SetHeight(maxInt(1, vpHeight-1))
	for i := range m.filterInputs {
		promptWidth := lipgloss.Width(m.filterInputs[i].Prompt)
		m.filterInputs[i].Width = maxInt(10, m.width-promptWidth-2)
	}
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	next := (m.activeTab + delta + count) % count
	m.activeTab = next
	if m.activeTab == tabPairs {
		m.pairTable.Focus()
	} else {
		m.pairTable.Blur()
	}
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	return padLines(m.renderTabs(), m.width) + "\n" + padLines(m.renderFilterSummary(), m.width)
}

func (m *Model) renderFilterSummary() string {
	pair := m.cfg.LangPair
	if pair == "" {
		pair = "any"
	}
	since := "any"
	if m.cfg.Since != nil {
		since = m.cfg.Since.Format("2006-01-02")
	}
	last := "all"
	if m.cfg.Last > 0 {
		last = strconv.Itoa(m.cfg.Last)
	}
	summary := fmt.Sprintf("Filters: pair=%s  since=%s  last=%s", pair, since, last)
	return headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderFooter() string {
	if m.filterMode {
		return headerStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel")
	}
	help := headerStyle.Render("Nav: left/right  Scroll: up/down/pgup/pgdn  Filters: /  Reload: r  Quit: q")
	if m.errMsg != "" {
		return help + "\n" + errorStyle.Render(m.errMsg)
	}
	return help
}

func (m *Model) renderBody(height int) string {
	if m.filterMode {
		lines := []string{"Filters (enter to apply, esc to cancel)"}
		for _, input := range m.filterInputs {
			lines = append(lines, input.View())
		}
		if m.filterError != "" {
			lines = append(lines, errorStyle.Render(m.filterError))
		}
		return fitLines(strings.Join(lines, "\n"), m.width, height)
	}
	if m.activeTab == tabPairs {
		if len(m.report.Pairs) == 0 {
			return fitLines("No translations found.", m.width, height)
		}
		return fitLines(tableMutedStyle.Render(m.pairTable.View()), m.width, height)
	}
	return fitLines(m.viewports[m.activeTab].View(), m.width, height)
}

func (m *Model) refreshReport() {
	report, err := stats.BuildReport(context.Background(), m.store, m.cfg)
	if err != nil {
		m.errMsg = err.Error()
		for i := range m.viewports {
			m.viewports[i].SetContent("Failed to load history.")
		}
		return
	}
	m.errMsg = ""
	m.report = report
	width := m.width
	if width <= 0 {
		width = 80
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.pairTable = buildPairTable(report.Pairs, m.catalog, width, bodyHeight)
	if m.activeTab == tabPairs {
		m.pairTable.Focus()
	}
	m.renderTabContents()
}

func (m *Model) renderTabContents() {
	if m.errMsg != "" {
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.viewports[tabOverview].SetContent(renderOverview(m.report, width))
	m.viewports[tabRecent].SetContent(renderRecent(m.report.Records, m.catalog, width))
}

func renderOverview(report stats.Report, width int) string {
	if len(report.Records) == 0 {
		return "No translations found."
	}
	t := report.Totals
	cards := []string{
		metricCard("Translations", strconv.Itoa(t.Count())),
		metricCard("Failed", strconv.Itoa(report.Failed)),
		metricCard("Average", stats.FormatSeconds(t.Average())),
		metricCard("Fastest", t.FormatFastest()),
		metricCard("Slowest", stats.FormatSeconds(t.Slowest())),
		metricCard("Last", stats.FormatSeconds(t.Last())),
	}
	var summary string
	if width < lipgloss.Width(strings.Join(cards, "")) {
		row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[0], cards[1], cards[2])
		row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[3], cards[4], cards[5])
		summary = lipgloss.JoinVertical(lipgloss.Left, row1, row2)
	} else {
		summary = lipgloss.JoinHorizontal(lipgloss.Top, cards...)
	}
	var buf bytes.Buffer
	if err := stats.RenderTrend(&buf, report.Records); err != nil {
		return summary
	}
	return strings.TrimRight(summary+"\n\n"+buf.String(), "\n")
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func renderRecent(records []model.TranslationRecord, catalog model.Catalog, width int) string {
	if len(records) == 0 {
		return "No translations found."
	}
	start := 0
	if len(records) > recentLimit {
		start = len(records) - recentLimit
	}
	lines := make([]string, 0, len(records)-start)
	for i := len(records) - 1; i >= start; i-- {
		rec := records[i]
		when := rec.CreatedAt.Local().Format("2006-01-02 15:04")
		elapsed := stats.FormatSeconds(time.Duration(rec.ElapsedMs) * time.Millisecond)
		line := fmt.Sprintf("%s  %-24s %6s  %4d chars", when, catalog.Label(rec.LangPair), elapsed, rec.SourceChars)
		if !rec.Succeeded {
			line = failedStyle.Render(truncateLine(line+"  failed: "+rec.Error, width))
		} else {
			line = truncateLine(line, width)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func buildPairTable(pairs []model.PairAggregate, catalog model.Catalog, width, height int) table.Model {
	columns := []table.Column{
		{Title: "Pair", Width: 6},
		{Title: "Name", Width: 22},
		{Title: "Count", Width: 6},
		{Title: "Avg", Width: 8},
		{Title: "Fastest", Width: 8},
		{Title: "Slowest", Width: 8},
		{Title: "Chars", Width: 7},
		{Title: "Failed", Width: 6},
	}
	rows := make([]table.Row, 0, len(pairs))
	for _, p := range pairs {
		avg := time.Duration(0)
		if p.Count > 0 {
			avg = time.Duration(p.TotalMs/int64(p.Count)) * time.Millisecond
		}
		rows = append(rows, table.Row{
			p.LangPair,
			catalog.Label(p.LangPair),
			strconv.Itoa(p.Count),
			stats.FormatSeconds(avg),
			stats.FormatSeconds(time.Duration(p.FastestMs) * time.Millisecond),
			stats.FormatSeconds(time.Duration(p.SlowestMs) * time.Millisecond),
			strconv.Itoa(p.TotalChars),
			strconv.Itoa(p.FailureCount),
		})
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(maxInt(1, height-1)),
	)
	t.SetWidth(width)
	t.SetStyles(pairTableStyles())
	return t
}

func pairTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func (m *Model) startFilter() (tea.Model, tea.Cmd) {
	m.filterMode = true
	m.filterError = ""
	m.setInputsFromConfig()
	return m, m.setFilterIndex(0)
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.filterMode = false
		m.filterError = ""
		return m, nil
	case "tab", "down":
		return m, m.setFilterIndex((m.filterIndex + 1) % len(m.filterInputs))
	case "shift+tab", "up":
		return m, m.setFilterIndex((m.filterIndex - 1 + len(m.filterInputs)) % len(m.filterInputs))
	case "enter":
		if err := m.applyFilter(); err != nil {
			m.filterError = err.Error()
			return m, nil
		}
		m.filterMode = false
		m.refreshReport()
		return m, nil
	}
	var cmd tea.Cmd
	m.filterInputs[m.filterIndex], cmd = m.filterInputs[m.filterIndex].Update(msg)
	return m, cmd
}

func (m *Model) setFilterIndex(idx int) tea.Cmd {
	m.filterIndex = idx
	var cmd tea.Cmd
	for i := range m.filterInputs {
		if i == idx {
			cmd = m.filterInputs[i].Focus()
		} else {
			m.filterInputs[i].Blur()
		}
	}
	return cmd
}

func (m *Model) applyFilter() error {
	cfg, err := ParseFilters(
		m.filterInputs[0].Value(),
		m.filterInputs[1].Value(),
		m.filterInputs[2].Value(),
	)
	if err != nil {
		return err
	}
	m.cfg = cfg
	return nil
}

// ParseFilters validates raw filter values into a HistoryConfig.
func ParseFilters(pair, since, last string) (model.HistoryConfig, error) {
	cfg := model.HistoryConfig{LangPair: strings.TrimSpace(pair)}
	if cfg.LangPair != "" {
		if _, _, ok := model.SplitPair(cfg.LangPair); !ok {
			return model.HistoryConfig{}, fmt.Errorf("invalid pair %q (expected src-tgt)", cfg.LangPair)
		}
	}
	if s := strings.TrimSpace(since); s != "" {
		parsed, err := time.ParseInLocation("2006-01-02", s, time.Local)
		if err != nil {
			return model.HistoryConfig{}, fmt.Errorf("invalid since date: %w", err)
		}
		cfg.Since = &parsed
	}
	if s := strings.TrimSpace(last); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return model.HistoryConfig{}, fmt.Errorf("last must be a non-negative integer")
		}
		cfg.Last = n
	}
	return cfg, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
