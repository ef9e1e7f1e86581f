package widgets

import (
	"fmt"
	"unicode/utf8"
)

// DefaultCharLimit matches the service's input limit.
const DefaultCharLimit = 500

const nearLimitRatio = 0.8

// Counter tracks input length against a soft limit and detects crossings.
type Counter struct {
	limit int
	over  bool
}

// CounterState is the rendered state after an edit.
type CounterState struct {
	Count int
	Limit int
	Near  bool
	Over  bool
	// Crossed is true only on the edit that moved the count beyond the limit.
	Crossed bool
}

// NewCounter returns a counter for limit characters.
func NewCounter(limit int) *Counter {
	if limit <= 0 {
		limit = DefaultCharLimit
	}
	return &Counter{limit: limit}
}

// Limit returns the configured limit.
func (c *Counter) Limit() int {
	return c.limit
}

// Update measures text after an edit.
func (c *Counter) Update(text string) CounterState {
	count := utf8.RuneCountInString(text)
	over := count > c.limit
	state := CounterState{
		Count:   count,
		Limit:   c.limit,
		Near:    float64(count) > float64(c.limit)*nearLimitRatio,
		Over:    over,
		Crossed: over && !c.over,
	}
	c.over = over
	return state
}

// String renders "count/limit characters".
func (s CounterState) String() string {
	return fmt.Sprintf("%d/%d characters", s.Count, s.Limit)
}

// OverLimitMessage is the warning shown when the input crosses the limit.
func OverLimitMessage(limit int) string {
	return fmt.Sprintf("Text exceeds the %d character limit. It will be truncated during translation.", limit)
}
