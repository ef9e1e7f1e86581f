// Package tui provides the Bubble Tea translation interface.
package tui

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/tuilate/internal/api"
	"github.com/verte-zerg/tuilate/internal/model"
	"github.com/verte-zerg/tuilate/internal/notify"
	"github.com/verte-zerg/tuilate/internal/session"
	"github.com/verte-zerg/tuilate/internal/stats"
	"github.com/verte-zerg/tuilate/internal/status"
	"github.com/verte-zerg/tuilate/internal/widgets"
)

const overLimitNoticeDuration = 3 * time.Second

// Service is the translation backend used by the UI.
type Service interface {
	Languages(ctx context.Context) (model.Catalog, error)
	ModelStatus(ctx context.Context) (model.ModelStatus, error)
	Translate(ctx context.Context, text, langPair string) (api.TranslateResponse, error)
}

// Options wires the UI to its collaborators.
type Options struct {
	Config    model.Config
	Service   Service
	Recorder  session.Recorder
	Speaker   *widgets.Speaker
	Clipboard widgets.ClipboardWriter
	Logger    *slog.Logger
	Now       func() time.Time
	SessionID string
}

// Model implements the Bubble Tea translation UI.
type Model struct {
	cfg    model.Config
	svc    Service
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	center     *notify.Center
	poller     *status.Poller
	controller *session.Controller
	counter    *widgets.Counter
	speaker    *widgets.Speaker
	clipboard  widgets.ClipboardWriter

	catalog model.Catalog
	pairs   []string
	pair    string

	input        textarea.Model
	output       viewport.Model
	outputText   string
	counterState widgets.CounterState
	spinner      spinner.Model
	help         help.Model
	keys         keyMap

	width  int
	height int

	speaking     bool
	copied       bool
	copyGen      int
	toastTicking bool
}

// NewModel constructs the translation UI model.
func NewModel(opts Options) *Model {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	clip := opts.Clipboard
	if clip == nil {
		clip = widgets.SystemClipboard
	}
	policy, err := status.ParseGPUNotice(opts.Config.GPUNotice)
	if err != nil {
		logger.Warn("invalid gpu notice policy, using default", "error", err)
		policy = status.GPUNoticeOnce
	}

	center := notify.NewCenter(now)
	ctx, cancel := context.WithCancel(context.Background())

	m := &Model{
		cfg:       opts.Config,
		svc:       opts.Service,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		center:    center,
		poller:    status.New(opts.Service, center, logger, status.WithGPUNotice(policy), status.WithClock(now)),
		counter:   widgets.NewCounter(opts.Config.CharLimit),
		speaker:   opts.Speaker,
		clipboard: clip,
		pair:      opts.Config.LangPair,
		keys:      defaultKeyMap(),
		help:      help.New(),
	}
	m.controller = session.NewController(session.Config{
		Translator: opts.Service,
		Notifier:   center,
		Recorder:   opts.Recorder,
		Logger:     logger,
		Now:        now,
		SessionID:  opts.SessionID,
		CharLimit:  m.counter.Limit(),

		NoticeDuration: opts.Config.NoticeDuration,
	})
	if m.speaker == nil {
		m.speaker = widgets.NewSpeaker(nil, logger)
	}

	m.input = textarea.New()
	m.input.Placeholder = "Enter text to translate..."
	m.input.ShowLineNumbers = false
	m.input.CharLimit = 0
	m.input.SetHeight(5)
	m.input.Focus()

	m.output = viewport.New(0, 5)

	m.spinner = spinner.New()
	m.spinner.Spinner = spinner.Dot
	m.spinner.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#60A5FA"))

	m.counterState = m.counter.Update("")
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		fetchLanguages(m.ctx, m.svc),
		fetchStatus(m.ctx, m.poller),
		pollTick(m.pollInterval()),
	)
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := m.update(msg)
	return m, tea.Batch(cmd, m.ensureToastTicker())
}

func (m *Model) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		return nil

	case languagesMsg:
		m.applyLanguages(msg)
		return nil

	case statusMsg:
		// A failed poll keeps the previous snapshot; Apply logs it.
		_, _ = m.poller.Apply(msg.status, msg.err)
		return nil

	case pollTickMsg:
		// The next tick is scheduled regardless of how this poll ends.
		return tea.Batch(fetchStatus(m.ctx, m.poller), pollTick(m.pollInterval()))

	case translateMsg:
		res, err := m.controller.Complete(msg.req, msg.resp, msg.err)
		if err != nil {
			return nil
		}
		m.setOutput(res.Text)
		return fetchStatus(m.ctx, m.poller)

	case speakDoneMsg:
		m.speaking = false
		if msg.err != nil && !errors.Is(msg.err, widgets.ErrSpeechUnavailable) && !errors.Is(msg.err, context.Canceled) {
			m.logger.Warn("speech failed", "error", msg.err)
			m.center.NotifyDefault("Speech failed: "+msg.err.Error(), notify.Error)
		}
		return nil

	case copyResetMsg:
		if msg.gen == m.copyGen {
			m.copied = false
		}
		return nil

	case toastFrameMsg:
		m.center.Advance()
		if m.center.Active() {
			return toastFrame()
		}
		m.toastTicking = false
		return nil

	case spinner.TickMsg:
		if !m.controller.Busy() {
			return nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.cancel()
		return tea.Quit
	case key.Matches(msg, m.keys.Translate):
		return m.submit()
	case key.Matches(msg, m.keys.NextPair):
		m.cyclePair(1)
		return nil
	case key.Matches(msg, m.keys.PrevPair):
		m.cyclePair(-1)
		return nil
	case key.Matches(msg, m.keys.Swap):
		m.swap()
		return nil
	case key.Matches(msg, m.keys.Copy):
		return m.copyOutput()
	case key.Matches(msg, m.keys.Speak):
		return m.speakOutput()
	case key.Matches(msg, m.keys.Clear):
		m.setInput("")
		m.setOutput("")
		return nil
	case key.Matches(msg, m.keys.Refresh):
		return fetchStatus(m.ctx, m.poller)
	case key.Matches(msg, m.keys.Dismiss):
		m.center.DismissLatest()
		return nil
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.refreshCounter()
	return cmd
}

func (m *Model) submit() tea.Cmd {
	req, err := m.controller.Begin(m.input.Value(), m.pair)
	if err != nil {
		// The controller already told the user.
		return nil
	}
	m.logger.Debug("translation started", "pair", req.LangPair, "chars", m.counterState.Count)
	return tea.Batch(translate(m.ctx, m.controller, req), m.spinner.Tick)
}

func (m *Model) applyLanguages(msg languagesMsg) {
	if msg.err != nil {
		m.logger.Error("failed to load languages", "error", msg.err)
		return
	}
	m.catalog = msg.catalog
	m.pairs = msg.catalog.Keys()
	m.controller.SetCatalog(msg.catalog)
	if len(m.pairs) == 0 {
		m.center.NotifyDefault("The service offers no language pairs", notify.Warning)
		return
	}
	if _, ok := m.catalog[m.pair]; !ok {
		m.logger.Warn("configured language pair is not offered", "pair", m.pair, "fallback", m.pairs[0])
		m.pair = m.pairs[0]
	}
}

func (m *Model) cyclePair(delta int) {
	if len(m.pairs) == 0 {
		return
	}
	idx := 0
	for i, p := range m.pairs {
		if p == m.pair {
			idx = i
			break
		}
	}
	idx = (idx + delta + len(m.pairs)) % len(m.pairs)
	if m.pairs[idx] == m.pair {
		return
	}
	m.pair = m.pairs[idx]
	m.setOutput("")
}

func (m *Model) swap() {
	res := widgets.Swap(m.pair, m.pairs, m.input.Value(), m.outputText)
	m.pair = res.Pair
	if res.Input != m.input.Value() {
		m.setInput(res.Input)
	}
	m.setOutput(res.Output)
}

func (m *Model) copyOutput() tea.Cmd {
	if !widgets.Copy(m.outputText, m.clipboard, m.logger) {
		return nil
	}
	m.copied = true
	m.copyGen++
	return copyReset(m.copyGen)
}

func (m *Model) speakOutput() tea.Cmd {
	if m.speaking || m.outputText == "" {
		return nil
	}
	if !m.speaker.Available() {
		m.logger.Debug("speak requested without a synthesizer")
		return nil
	}
	m.speaking = true
	return speak(m.ctx, m.speaker, m.outputText, m.pair)
}

func (m *Model) setInput(text string) {
	m.input.SetValue(text)
	m.refreshCounter()
}

func (m *Model) refreshCounter() {
	m.counterState = m.counter.Update(m.input.Value())
	if m.counterState.Crossed {
		m.center.Notify(widgets.OverLimitMessage(m.counterState.Limit), notify.Warning, overLimitNoticeDuration)
	}
}

func (m *Model) setOutput(text string) {
	m.outputText = text
	m.output.SetContent(wrapText(text, m.output.Width))
	m.output.GotoTop()
}

func (m *Model) ensureToastTicker() tea.Cmd {
	if m.toastTicking || !m.center.Active() {
		return nil
	}
	m.toastTicking = true
	return toastFrame()
}

func (m *Model) pollInterval() time.Duration {
	if m.cfg.PollInterval > 0 {
		return m.cfg.PollInterval
	}
	return status.DefaultInterval
}

func (m *Model) updateLayout() {
	inner := m.width - 4
	if inner < 10 {
		inner = 10
	}
	m.input.SetWidth(inner)
	m.output.Width = inner
	m.output.SetContent(wrapText(m.outputText, inner))
	m.help.Width = m.width
}

// Stats exposes the session statistics for the exit summary.
func (m *Model) Stats() *stats.TranslationStatistics {
	return m.controller.Stats()
}
