// Package status polls the translation service for model and GPU state.
package status

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/verte-zerg/tuilate/internal/model"
	"github.com/verte-zerg/tuilate/internal/notify"
)

// DefaultInterval is the period between polls.
const DefaultInterval = 10 * time.Second

const (
	gpuNoticeMessage  = "GPU acceleration is enabled for faster translations"
	gpuNoticeDuration = 3 * time.Second
)

// GPUNotice selects when the GPU notification is shown.
type GPUNotice string

const (
	GPUNoticeOnce   GPUNotice = "once"
	GPUNoticeAlways GPUNotice = "always"
	GPUNoticeNever  GPUNotice = "never"
)

// ParseGPUNotice validates a GPU notice policy name.
func ParseGPUNotice(value string) (GPUNotice, error) {
	switch GPUNotice(value) {
	case GPUNoticeOnce, GPUNoticeAlways, GPUNoticeNever:
		return GPUNotice(value), nil
	case "":
		return GPUNoticeOnce, nil
	default:
		return "", fmt.Errorf("invalid gpu notice policy %q (want once, always or never)", value)
	}
}

// Snapshot is the last known server state. It is replaced wholesale.
type Snapshot struct {
	LoadedModels     []string
	PreloadingModels []string
	GPUAvailable     bool
	FetchedAt        time.Time
}

// HasLoadedModels reports whether any model is loaded.
func (s Snapshot) HasLoadedModels() bool {
	return len(s.LoadedModels) > 0
}

// Fetcher retrieves the raw model status.
type Fetcher interface {
	ModelStatus(ctx context.Context) (model.ModelStatus, error)
}

// Poller owns the server snapshot. Fetch may run off the event loop; Apply
// must be called from a single goroutine.
type Poller struct {
	fetcher  Fetcher
	notifier notify.Notifier
	policy   GPUNotice
	logger   *slog.Logger
	now      func() time.Time

	snapshot    Snapshot
	hasSnapshot bool
	gpuNoticed  bool
	failures    int
	lastErr     error
}

// Option customizes a Poller.
type Option func(*Poller)

// WithGPUNotice sets the GPU notification policy.
func WithGPUNotice(policy GPUNotice) Option {
	return func(p *Poller) { p.policy = policy }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(p *Poller) { p.now = now }
}

// New constructs a poller. notifier may be nil.
func New(fetcher Fetcher, notifier notify.Notifier, logger *slog.Logger, opts ...Option) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Poller{
		fetcher:  fetcher,
		notifier: notifier,
		policy:   GPUNoticeOnce,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Fetch retrieves the current status without touching poller state.
func (p *Poller) Fetch(ctx context.Context) (status model.ModelStatus, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("model status fetch panicked: %v", r)
		}
	}()
	return p.fetcher.ModelStatus(ctx)
}

// Apply stores the outcome of a fetch. A failure is logged and keeps the
// previous snapshot.
func (p *Poller) Apply(status model.ModelStatus, err error) (Snapshot, error) {
	if err != nil {
		p.failures++
		p.lastErr = err
		p.logger.Warn("model status poll failed", "error", err, "failures", p.failures)
		return p.snapshot, err
	}
	p.lastErr = nil
	p.snapshot = Snapshot{
		LoadedModels:     normalizeSet(status.LoadedModels),
		PreloadingModels: normalizeSet(status.PreloadingModels),
		GPUAvailable:     status.GPUAvailable,
		FetchedAt:        p.now(),
	}
	p.hasSnapshot = true
	p.logger.Debug("model status updated",
		"loaded", len(p.snapshot.LoadedModels),
		"preloading", len(p.snapshot.PreloadingModels),
		"gpu", p.snapshot.GPUAvailable,
	)
	p.maybeNotifyGPU()
	return p.snapshot, nil
}

// Poll fetches and applies in one step.
func (p *Poller) Poll(ctx context.Context) (Snapshot, error) {
	status, err := p.Fetch(ctx)
	return p.Apply(status, err)
}

// Snapshot returns the last stored snapshot; ok is false before the first
// successful poll.
func (p *Poller) Snapshot() (Snapshot, bool) {
	return p.snapshot, p.hasSnapshot
}

// LastError returns the error of the most recent poll, if it failed.
func (p *Poller) LastError() error {
	return p.lastErr
}

// Failures returns the number of failed polls so far.
func (p *Poller) Failures() int {
	return p.failures
}

// Run polls immediately and then every interval until ctx is done. Poll
// failures never stop the loop. onUpdate, when set, receives every
// successful snapshot.
func (p *Poller) Run(ctx context.Context, interval time.Duration, onUpdate func(Snapshot)) error {
	if interval <= 0 {
		interval = DefaultInterval
	}
	p.pollOnce(ctx, onUpdate)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.pollOnce(ctx, onUpdate)
		}
	}
}

func (p *Poller) pollOnce(ctx context.Context, onUpdate func(Snapshot)) {
	snap, err := p.Poll(ctx)
	if err != nil || onUpdate == nil {
		return
	}
	onUpdate(snap)
}

func (p *Poller) maybeNotifyGPU() {
	if p.notifier == nil || !p.snapshot.GPUAvailable {
		return
	}
	switch p.policy {
	case GPUNoticeNever:
		return
	case GPUNoticeOnce:
		if p.gpuNoticed {
			return
		}
	}
	p.gpuNoticed = true
	p.notifier.Notify(gpuNoticeMessage, notify.Success, gpuNoticeDuration)
}

func normalizeSet(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
