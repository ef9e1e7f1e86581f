package stats

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/tuilate/internal/model"
	"github.com/verte-zerg/tuilate/internal/store"
)

func TestBuildReport(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "tuilate.db")
	st, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	ctx := context.Background()
	elapsed := []int64{500, 1500, 1000}
	for i, ms := range elapsed {
		rec := model.TranslationRecord{
			SessionID:   "s1",
			CreatedAt:   time.Unix(0, 0).Add(time.Duration(i) * time.Minute),
			LangPair:    "en-fr",
			SourceChars: 10,
			ElapsedMs:   ms,
			Succeeded:   true,
		}
		if _, err := st.RecordTranslation(ctx, rec); err != nil {
			t.Fatalf("record translation: %v", err)
		}
	}
	failed := model.TranslationRecord{
		SessionID: "s1",
		CreatedAt: time.Unix(0, 0).Add(10 * time.Minute),
		LangPair:  "fr-en",
		Error:     "boom",
	}
	if _, err := st.RecordTranslation(ctx, failed); err != nil {
		t.Fatalf("record failure: %v", err)
	}

	report, err := BuildReport(ctx, st, model.HistoryConfig{})
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if len(report.Records) != 4 {
		t.Fatalf("expected 4 records, got %d", len(report.Records))
	}
	if report.Failed != 1 {
		t.Fatalf("expected 1 failure, got %d", report.Failed)
	}
	if report.Totals.Count() != 3 {
		t.Fatalf("expected 3 successful samples, got %d", report.Totals.Count())
	}
	if report.Totals.Average() != time.Second {
		t.Fatalf("expected 1s average, got %v", report.Totals.Average())
	}
	if len(report.Pairs) != 2 {
		t.Fatalf("expected 2 pair aggregates, got %d", len(report.Pairs))
	}

	var buf bytes.Buffer
	if err := RenderSummary(&buf, report); err != nil {
		t.Fatalf("render summary: %v", err)
	}
	if err := RenderPairTable(&buf, report.Pairs, model.Catalog{"en-fr": {Name: "English to French"}}); err != nil {
		t.Fatalf("render pairs: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Translations: 3", "Failed: 1", "Average Time: 1.00s", "Fastest Time: 0.50s", "English to French"} {
		if !strings.Contains(out, want) {
			t.Fatalf("report missing %q:\n%s", want, out)
		}
	}
}

func TestRenderSummaryEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderSummary(&buf, Report{Totals: NewTranslationStatistics(0)}); err != nil {
		t.Fatalf("render summary: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "No translations found." {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}
