package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/tuilate/internal/api"
	"github.com/verte-zerg/tuilate/internal/model"
	"github.com/verte-zerg/tuilate/internal/session"
	"github.com/verte-zerg/tuilate/internal/status"
	"github.com/verte-zerg/tuilate/internal/widgets"
)

const (
	copiedLabelDuration = 2 * time.Second
	toastFrameInterval  = 50 * time.Millisecond
)

// Messages for tea.Cmd
type languagesMsg struct {
	catalog model.Catalog
	err     error
}

type statusMsg struct {
	status model.ModelStatus
	err    error
}

type pollTickMsg time.Time

type translateMsg struct {
	req  session.Request
	resp api.TranslateResponse
	err  error
}

type speakDoneMsg struct {
	err error
}

type copyResetMsg struct {
	gen int
}

type toastFrameMsg time.Time

func fetchLanguages(ctx context.Context, svc Service) tea.Cmd {
	return func() tea.Msg {
		catalog, err := svc.Languages(ctx)
		return languagesMsg{catalog: catalog, err: err}
	}
}

// fetchStatus only reads; the result is applied in Update.
func fetchStatus(ctx context.Context, p *status.Poller) tea.Cmd {
	return func() tea.Msg {
		st, err := p.Fetch(ctx)
		return statusMsg{status: st, err: err}
	}
}

func pollTick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return pollTickMsg(t)
	})
}

func translate(ctx context.Context, c *session.Controller, req session.Request) tea.Cmd {
	return func() tea.Msg {
		resp, err := c.Send(ctx, req)
		return translateMsg{req: req, resp: resp, err: err}
	}
}

func speak(ctx context.Context, s *widgets.Speaker, text, pair string) tea.Cmd {
	return func() tea.Msg {
		return speakDoneMsg{err: s.Speak(ctx, text, pair)}
	}
}

func copyReset(gen int) tea.Cmd {
	return tea.Tick(copiedLabelDuration, func(time.Time) tea.Msg {
		return copyResetMsg{gen: gen}
	})
}

func toastFrame() tea.Cmd {
	return tea.Tick(toastFrameInterval, func(t time.Time) tea.Msg {
		return toastFrameMsg(t)
	})
}
