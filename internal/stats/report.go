// Package stats contains translation timing statistics and reporting.
package stats

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/verte-zerg/tuilate/internal/model"
	"github.com/verte-zerg/tuilate/internal/store"
)

const trendWindow = 5

// Report contains precomputed history data for rendering.
type Report struct {
	Records []model.TranslationRecord
	Pairs   []model.PairAggregate
	Totals  *TranslationStatistics
	Failed  int
}

// BuildReport loads and prepares history data for rendering.
func BuildReport(ctx context.Context, st *store.Store, cfg model.HistoryConfig) (Report, error) {
	records, err := st.ListTranslations(ctx, cfg)
	if err != nil {
		return Report{}, fmt.Errorf("failed to list translations: %w", err)
	}
	pairs, err := st.ListPairAggregates(ctx, cfg)
	if err != nil {
		return Report{}, fmt.Errorf("failed to aggregate translations: %w", err)
	}
	totals := NewTranslationStatistics(len(records))
	failed := 0
	for _, rec := range records {
		if !rec.Succeeded {
			failed++
			continue
		}
		totals.Record(time.Duration(rec.ElapsedMs) * time.Millisecond)
	}
	return Report{
		Records: records,
		Pairs:   pairs,
		Totals:  totals,
		Failed:  failed,
	}, nil
}

// RenderSummary prints the overall history summary.
func RenderSummary(w io.Writer, report Report) error {
	if len(report.Records) == 0 {
		_, err := fmt.Fprintln(w, "No translations found.")
		return err
	}
	if _, err := fmt.Fprintln(w, "Summary"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Failed: %d\n", report.Failed); err != nil {
		return err
	}
	return RenderStatistics(w, report.Totals)
}

// RenderStatistics prints the aggregate timings of t.
func RenderStatistics(w io.Writer, t *TranslationStatistics) error {
	lines := []string{
		fmt.Sprintf("Translations: %d", t.Count()),
		fmt.Sprintf("Average Time: %s", FormatSeconds(t.Average())),
		fmt.Sprintf("Fastest Time: %s", t.FormatFastest()),
		fmt.Sprintf("Slowest Time: %s", FormatSeconds(t.Slowest())),
		fmt.Sprintf("Last Translation: %s", FormatSeconds(t.Last())),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderPairTable prints per-pair aggregates.
func RenderPairTable(w io.Writer, pairs []model.PairAggregate, catalog model.Catalog) error {
	if len(pairs) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "Per Language Pair"); err != nil {
		return err
	}
	rows := make([][]string, 0, len(pairs))
	for _, p := range pairs {
		avg := time.Duration(0)
		if p.Count > 0 {
			avg = time.Duration(p.TotalMs/int64(p.Count)) * time.Millisecond
		}
		rows = append(rows, []string{
			p.LangPair,
			catalog.Label(p.LangPair),
			fmt.Sprintf("%d", p.Count),
			FormatSeconds(avg),
			FormatSeconds(time.Duration(p.FastestMs) * time.Millisecond),
			FormatSeconds(time.Duration(p.SlowestMs) * time.Millisecond),
			fmt.Sprintf("%d", p.TotalChars),
			fmt.Sprintf("%d", p.FailureCount),
		})
	}
	if err := writeTable(w, pairColumns, rows); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderTrend prints a smoothed sparkline of successful translation times.
func RenderTrend(w io.Writer, records []model.TranslationRecord) error {
	values := make([]float64, 0, len(records))
	for _, rec := range records {
		if rec.Succeeded {
			values = append(values, float64(rec.ElapsedMs)/1000)
		}
	}
	if len(values) < 2 {
		return nil
	}
	line := Sparkline(MovingAverage(values, trendWindow))
	_, err := fmt.Fprintf(w, "Trend (moving avg %d): %s\n", trendWindow, line)
	return err
}
