package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/tuilate/internal/api"
	"github.com/verte-zerg/tuilate/internal/model"
	"github.com/verte-zerg/tuilate/internal/notify"
	"github.com/verte-zerg/tuilate/internal/stats"
)

type fakeTranslator struct {
	calls int
	resp  api.TranslateResponse
	err   error
	delay time.Duration
	clock *fakeClock
}

func (f *fakeTranslator) Translate(_ context.Context, _, _ string) (api.TranslateResponse, error) {
	f.calls++
	if f.clock != nil {
		f.clock.advance(f.delay)
	}
	return f.resp, f.err
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

type sentNotification struct {
	message  string
	severity notify.Severity
}

type recordingNotifier struct {
	sent []sentNotification
}

func (r *recordingNotifier) Notify(message string, severity notify.Severity, _ time.Duration) {
	r.sent = append(r.sent, sentNotification{message: message, severity: severity})
}

type memoryRecorder struct {
	records []model.TranslationRecord
}

func (m *memoryRecorder) RecordTranslation(_ context.Context, rec model.TranslationRecord) (int64, error) {
	m.records = append(m.records, rec)
	return int64(len(m.records)), nil
}

func newTestController(tr *fakeTranslator) (*Controller, *recordingNotifier, *memoryRecorder) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	tr.clock = clock
	n := &recordingNotifier{}
	rec := &memoryRecorder{}
	c := NewController(Config{
		Translator: tr,
		Notifier:   n,
		Stats:      stats.NewTranslationStatistics(0),
		Recorder:   rec,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:        clock.now,
		SessionID:  "test-session",
	})
	c.SetCatalog(model.Catalog{"en-fr": {Name: "English to French", Source: "en", Target: "fr"}})
	return c, n, rec
}

func TestEmptyInputMakesNoCall(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t "} {
		tr := &fakeTranslator{}
		c, n, _ := newTestController(tr)
		_, err := c.Submit(context.Background(), text, "en-fr")
		if !errors.Is(err, ErrEmptyInput) {
			t.Fatalf("expected ErrEmptyInput, got %v", err)
		}
		if tr.calls != 0 {
			t.Fatalf("expected no network call, got %d", tr.calls)
		}
		if len(n.sent) != 1 || n.sent[0].severity != notify.Warning {
			t.Fatalf("expected exactly one warning, got %+v", n.sent)
		}
		if c.Busy() {
			t.Fatalf("controller must not be busy after empty input")
		}
	}
}

func TestSuccessUsesServerTime(t *testing.T) {
	tr := &fakeTranslator{
		resp:  api.TranslateResponse{TranslatedText: "Bonjour", TranslationTime: api.Seconds{Value: 520 * time.Millisecond, Valid: true}},
		delay: 2 * time.Second,
	}
	c, n, rec := newTestController(tr)

	res, err := c.Submit(context.Background(), "  Hello  ", "en-fr")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Text != "Bonjour" || res.Elapsed != 520*time.Millisecond || !res.ServerReported {
		t.Fatalf("unexpected result: %+v", res)
	}
	if c.Stats().Count() != 1 || c.Stats().Last() != 520*time.Millisecond {
		t.Fatalf("statistics not updated: count=%d last=%v", c.Stats().Count(), c.Stats().Last())
	}
	if len(n.sent) != 1 || n.sent[0].severity != notify.Success {
		t.Fatalf("expected one success notification, got %+v", n.sent)
	}
	if n.sent[0].message != "Translation completed in 0.52s (English to French)" {
		t.Fatalf("unexpected message: %q", n.sent[0].message)
	}
	if len(rec.records) != 1 || !rec.records[0].Succeeded || rec.records[0].SourceChars != 5 {
		t.Fatalf("unexpected history: %+v", rec.records)
	}
	if c.Busy() {
		t.Fatalf("controller must be idle after completion")
	}
}

func TestSuccessFallsBackToWallClock(t *testing.T) {
	tr := &fakeTranslator{resp: api.TranslateResponse{TranslatedText: "Hola"}, delay: 1500 * time.Millisecond}
	c, n, _ := newTestController(tr)

	res, err := c.Submit(context.Background(), "Hello", "en-es")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Elapsed != 1500*time.Millisecond || res.ServerReported {
		t.Fatalf("expected wall-clock elapsed, got %+v", res)
	}
	if !strings.Contains(n.sent[0].message, "(English to Spanish)") {
		t.Fatalf("expected fallback label, got %q", n.sent[0].message)
	}
}

func TestFailureLeavesStatsUnchanged(t *testing.T) {
	errs := []error{
		&api.ServerError{Status: 500, Message: "model crashed"},
		&api.NetworkError{Op: "POST /translate", Err: errors.New("connection refused")},
	}
	for _, want := range errs {
		tr := &fakeTranslator{err: want}
		c, n, rec := newTestController(tr)
		c.Stats().Record(time.Second)

		_, err := c.Submit(context.Background(), "Hello", "en-fr")
		if !errors.Is(err, want) {
			t.Fatalf("expected %v, got %v", want, err)
		}
		if c.Stats().Count() != 1 || c.Stats().Last() != time.Second {
			t.Fatalf("statistics changed on failure")
		}
		if c.Busy() {
			t.Fatalf("controller must be re-enabled after failure")
		}
		if len(n.sent) != 1 || n.sent[0].severity != notify.Error {
			t.Fatalf("expected one error notification, got %+v", n.sent)
		}
		if len(rec.records) != 1 || rec.records[0].Succeeded {
			t.Fatalf("expected failed history record, got %+v", rec.records)
		}
	}
}

func TestServerErrorMessage(t *testing.T) {
	tr := &fakeTranslator{err: &api.ServerError{Status: 400, Message: "Invalid language pair"}}
	c, n, _ := newTestController(tr)
	_, _ = c.Submit(context.Background(), "Hello", "xx-yy")
	if n.sent[0].message != "Error: Invalid language pair" {
		t.Fatalf("unexpected message: %q", n.sent[0].message)
	}
}

func TestOverlappingSubmissionRejected(t *testing.T) {
	tr := &fakeTranslator{resp: api.TranslateResponse{TranslatedText: "x"}}
	c, _, _ := newTestController(tr)

	req, err := c.Begin("Hello", "en-fr")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if !c.Busy() {
		t.Fatalf("expected busy after begin")
	}
	if _, err := c.Begin("Again", "en-fr"); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if _, err := c.Complete(req, api.TranslateResponse{TranslatedText: "Bonjour"}, nil); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, err := c.Begin("Again", "en-fr"); err != nil {
		t.Fatalf("expected new submission after completion, got %v", err)
	}
}

func TestOverLimitWarnsButSendsFullText(t *testing.T) {
	tr := &fakeTranslator{resp: api.TranslateResponse{TranslatedText: "x"}}
	c, n, _ := newTestController(tr)
	text := strings.Repeat("a", 600)
	req, err := c.Begin(text, "en-fr")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if len(req.Text) != 600 {
		t.Fatalf("client must not truncate, got %d chars", len(req.Text))
	}
	if len(n.sent) != 1 || n.sent[0].severity != notify.Warning {
		t.Fatalf("expected one truncation warning, got %+v", n.sent)
	}
}

func TestStatisticsAcrossSequence(t *testing.T) {
	tr := &fakeTranslator{}
	c, _, _ := newTestController(tr)
	samples := []time.Duration{900 * time.Millisecond, 300 * time.Millisecond, 1200 * time.Millisecond}
	var sum time.Duration
	for _, d := range samples {
		tr.resp = api.TranslateResponse{TranslatedText: "ok", TranslationTime: api.Seconds{Value: d, Valid: true}}
		if _, err := c.Submit(context.Background(), "Hello", "en-fr"); err != nil {
			t.Fatalf("submit: %v", err)
		}
		sum += d
	}
	s := c.Stats()
	fastest, _ := s.Fastest()
	if s.Average() != sum/3 || fastest != 300*time.Millisecond || s.Slowest() != 1200*time.Millisecond || s.Last() != 1200*time.Millisecond {
		t.Fatalf("unexpected aggregate: avg=%v fastest=%v slowest=%v last=%v", s.Average(), fastest, s.Slowest(), s.Last())
	}
}
