// Package session runs translation requests and owns the running statistics.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/verte-zerg/tuilate/internal/api"
	"github.com/verte-zerg/tuilate/internal/model"
	"github.com/verte-zerg/tuilate/internal/notify"
	"github.com/verte-zerg/tuilate/internal/stats"
	"github.com/verte-zerg/tuilate/internal/widgets"
)

var (
	// ErrEmptyInput is returned for blank submissions; no request is made.
	ErrEmptyInput = errors.New("empty input")
	// ErrBusy is returned while another translation is in flight.
	ErrBusy = errors.New("translation already in progress")
)

const (
	emptyInputMessage = "Please enter some text to translate"
	busyMessage       = "A translation is already in progress"
)

// Translator performs the network call.
type Translator interface {
	Translate(ctx context.Context, text, langPair string) (api.TranslateResponse, error)
}

// Recorder persists translation attempts.
type Recorder interface {
	RecordTranslation(ctx context.Context, rec model.TranslationRecord) (int64, error)
}

// Request is an accepted submission waiting for its response.
type Request struct {
	Text      string
	LangPair  string
	StartedAt time.Time
}

// Result is a completed translation.
type Result struct {
	Text           string
	LangPair       string
	Elapsed        time.Duration
	ServerReported bool
}

// Controller validates submissions, tracks the in-flight request and applies
// outcomes. Begin and Complete must be called from one goroutine; only the
// network call may run elsewhere.
type Controller struct {
	translator Translator
	notifier   notify.Notifier
	stats      *stats.TranslationStatistics
	recorder   Recorder
	logger     *slog.Logger
	now        func() time.Time

	sessionID string
	charLimit int
	notice    time.Duration
	catalog   model.Catalog
	busy      bool
}

// Config holds the controller's collaborators.
type Config struct {
	Translator Translator
	Notifier   notify.Notifier
	Stats      *stats.TranslationStatistics
	Recorder   Recorder
	Logger     *slog.Logger
	Now        func() time.Time
	SessionID  string
	CharLimit  int
	// NoticeDuration is how long outcome notifications stay up.
	NoticeDuration time.Duration
}

// NewController constructs a controller. Unset fields get defaults.
func NewController(cfg Config) *Controller {
	c := &Controller{
		translator: cfg.Translator,
		notifier:   cfg.Notifier,
		stats:      cfg.Stats,
		recorder:   cfg.Recorder,
		logger:     cfg.Logger,
		now:        cfg.Now,
		sessionID:  cfg.SessionID,
		charLimit:  cfg.CharLimit,
		notice:     cfg.NoticeDuration,
	}
	if c.stats == nil {
		c.stats = stats.NewTranslationStatistics(stats.DefaultRecentWindow)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.notice <= 0 {
		c.notice = notify.DefaultDuration
	}
	if c.charLimit <= 0 {
		c.charLimit = widgets.DefaultCharLimit
	}
	return c
}

// SetCatalog installs the language catalog used for labels.
func (c *Controller) SetCatalog(catalog model.Catalog) {
	c.catalog = catalog
}

// Stats returns the running statistics.
func (c *Controller) Stats() *stats.TranslationStatistics {
	return c.stats
}

// Busy reports whether a translation is in flight.
func (c *Controller) Busy() bool {
	return c.busy
}

// Begin validates a submission and marks the controller busy.
func (c *Controller) Begin(text, langPair string) (Request, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		c.notify(emptyInputMessage, notify.Warning, c.notice)
		return Request{}, ErrEmptyInput
	}
	if c.busy {
		c.notify(busyMessage, notify.Info, c.notice)
		return Request{}, ErrBusy
	}
	if utf8.RuneCountInString(trimmed) > c.charLimit {
		c.notify(widgets.OverLimitMessage(c.charLimit), notify.Warning, c.notice)
	}
	c.busy = true
	return Request{Text: trimmed, LangPair: langPair, StartedAt: c.now()}, nil
}

// Complete applies the response to req. The busy flag is always cleared.
func (c *Controller) Complete(req Request, resp api.TranslateResponse, err error) (Result, error) {
	defer c.finish()

	elapsed := c.now().Sub(req.StartedAt)
	rec := model.TranslationRecord{
		SessionID:   c.sessionID,
		CreatedAt:   req.StartedAt,
		LangPair:    req.LangPair,
		SourceChars: utf8.RuneCountInString(req.Text),
		ElapsedMs:   elapsed.Milliseconds(),
	}

	if err != nil {
		c.logger.Error("translation failed", "pair", req.LangPair, "error", err)
		c.notify(failureMessage(err), notify.Error, c.notice)
		rec.Error = err.Error()
		c.record(rec)
		return Result{}, err
	}

	res := Result{Text: resp.TranslatedText, LangPair: req.LangPair, Elapsed: elapsed}
	if resp.TranslationTime.Valid {
		res.Elapsed = resp.TranslationTime.Value
		res.ServerReported = true
	}
	c.stats.Record(res.Elapsed)

	c.notify(fmt.Sprintf("Translation completed in %s (%s)", stats.FormatSeconds(res.Elapsed), c.catalog.Label(req.LangPair)),
		notify.Success, c.notice)
	c.logger.Info("translation completed", "pair", req.LangPair, "elapsed", res.Elapsed, "server_reported", res.ServerReported)

	rec.ElapsedMs = res.Elapsed.Milliseconds()
	rec.ServerReported = res.ServerReported
	rec.Succeeded = true
	c.record(rec)
	return res, nil
}

// Submit runs Begin, the network call and Complete in sequence.
func (c *Controller) Submit(ctx context.Context, text, langPair string) (Result, error) {
	req, err := c.Begin(text, langPair)
	if err != nil {
		return Result{}, err
	}
	resp, err := c.translate(ctx, req)
	return c.Complete(req, resp, err)
}

// Send performs the network call for an accepted request. It is safe to call
// off the event loop.
func (c *Controller) Send(ctx context.Context, req Request) (api.TranslateResponse, error) {
	return c.translate(ctx, req)
}

func (c *Controller) translate(ctx context.Context, req Request) (resp api.TranslateResponse, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("translation request panicked: %v", r)
		}
	}()
	return c.translator.Translate(ctx, req.Text, req.LangPair)
}

func (c *Controller) finish() {
	c.busy = false
}

func (c *Controller) record(rec model.TranslationRecord) {
	if c.recorder == nil {
		return
	}
	if _, err := c.recorder.RecordTranslation(context.Background(), rec); err != nil {
		c.logger.Warn("failed to save translation history", "error", err)
	}
}

func (c *Controller) notify(message string, severity notify.Severity, d time.Duration) {
	if c.notifier == nil {
		return
	}
	c.notifier.Notify(message, severity, d)
}

func failureMessage(err error) string {
	var serverErr *api.ServerError
	if errors.As(err, &serverErr) {
		return "Error: " + serverErr.Error()
	}
	var netErr *api.NetworkError
	if errors.As(err, &netErr) {
		return "An error occurred during translation: " + netErr.Err.Error()
	}
	return "An error occurred during translation: " + err.Error()
}
