// Package stats contains translation timing statistics and reporting.
package stats

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const sparkChars = " .:-=+*#%@"

// DefaultRecentWindow is how many recent samples are kept for the sparkline.
const DefaultRecentWindow = 20

// TranslationStatistics aggregates elapsed times of completed translations.
// The zero value is ready to use. Only the session controller records samples.
type TranslationStatistics struct {
	count   int
	total   time.Duration
	fastest time.Duration
	slowest time.Duration
	last    time.Duration
	hasMin  bool

	window int
	recent []time.Duration
}

// NewTranslationStatistics returns an empty aggregate keeping window recent samples.
func NewTranslationStatistics(window int) *TranslationStatistics {
	return &TranslationStatistics{window: window}
}

// Record appends one completed translation.
func (s *TranslationStatistics) Record(elapsed time.Duration) {
	if elapsed < 0 {
		elapsed = 0
	}
	s.count++
	s.total += elapsed
	s.last = elapsed
	if !s.hasMin || elapsed < s.fastest {
		s.fastest = elapsed
		s.hasMin = true
	}
	if elapsed > s.slowest {
		s.slowest = elapsed
	}

	window := s.window
	if window <= 0 {
		window = DefaultRecentWindow
	}
	s.recent = append(s.recent, elapsed)
	if len(s.recent) > window {
		s.recent = s.recent[len(s.recent)-window:]
	}
}

// Count returns the number of recorded translations.
func (s *TranslationStatistics) Count() int { return s.count }

// Total returns the summed elapsed time.
func (s *TranslationStatistics) Total() time.Duration { return s.total }

// Average returns Total/Count, or 0 before the first sample.
func (s *TranslationStatistics) Average() time.Duration {
	if s.count == 0 {
		return 0
	}
	return s.total / time.Duration(s.count)
}

// Fastest returns the smallest sample; ok is false until one is recorded.
func (s *TranslationStatistics) Fastest() (time.Duration, bool) {
	return s.fastest, s.hasMin
}

// Slowest returns the largest sample.
func (s *TranslationStatistics) Slowest() time.Duration { return s.slowest }

// Last returns the most recent sample.
func (s *TranslationStatistics) Last() time.Duration { return s.last }

// Recent returns a copy of the recent-sample window, oldest first.
func (s *TranslationStatistics) Recent() []time.Duration {
	out := make([]time.Duration, len(s.recent))
	copy(out, s.recent)
	return out
}

// FormatSeconds renders a duration as seconds with two decimals, e.g. "0.52s".
func FormatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.2fs", d.Seconds())
}

// FormatFastest renders the fastest sample or "N/A" before any sample.
func (s *TranslationStatistics) FormatFastest() string {
	fastest, ok := s.Fastest()
	if !ok {
		return "N/A"
	}
	return FormatSeconds(fastest)
}

// Seconds converts durations to float seconds for plotting.
func Seconds(values []time.Duration) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v.Seconds()
	}
	return out
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}
