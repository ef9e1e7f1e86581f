package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/tuilate/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func seed(t *testing.T, st *Store, base time.Time) {
	t.Helper()
	records := []model.TranslationRecord{
		{SessionID: "a", CreatedAt: base, LangPair: "en-fr", SourceChars: 10, ElapsedMs: 800, ServerReported: true, Succeeded: true},
		{SessionID: "a", CreatedAt: base.Add(time.Minute), LangPair: "en-fr", SourceChars: 20, ElapsedMs: 1200, Succeeded: true},
		{SessionID: "a", CreatedAt: base.Add(2 * time.Minute), LangPair: "en-fr", SourceChars: 5, ElapsedMs: 300, Error: "boom"},
		{SessionID: "b", CreatedAt: base.Add(3 * time.Minute), LangPair: "fr-en", SourceChars: 7, ElapsedMs: 500, ServerReported: true, Succeeded: true},
	}
	for _, rec := range records {
		if _, err := st.RecordTranslation(context.Background(), rec); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
}

func TestListTranslationsFilters(t *testing.T) {
	st := openTestStore(t)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	seed(t, st, base)
	ctx := context.Background()

	all, err := st.ListTranslations(ctx, model.HistoryConfig{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 4 || all[0].ElapsedMs != 800 || !all[0].ServerReported || all[2].Succeeded || all[2].Error != "boom" {
		t.Fatalf("unexpected records: %+v", all)
	}
	if !all[0].CreatedAt.Equal(base) {
		t.Fatalf("unexpected timestamp %v", all[0].CreatedAt)
	}

	pair, err := st.ListTranslations(ctx, model.HistoryConfig{LangPair: "fr-en"})
	if err != nil {
		t.Fatalf("list pair: %v", err)
	}
	if len(pair) != 1 || pair[0].SessionID != "b" {
		t.Fatalf("unexpected pair filter result: %+v", pair)
	}

	since := base.Add(90 * time.Second)
	recent, err := st.ListTranslations(ctx, model.HistoryConfig{Since: &since})
	if err != nil {
		t.Fatalf("list since: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 records since cutoff, got %d", len(recent))
	}

	last, err := st.ListTranslations(ctx, model.HistoryConfig{Last: 1})
	if err != nil {
		t.Fatalf("list last: %v", err)
	}
	if len(last) != 1 || last[0].LangPair != "fr-en" {
		t.Fatalf("expected newest record, got %+v", last)
	}
}

func TestListPairAggregates(t *testing.T) {
	st := openTestStore(t)
	seed(t, st, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))

	aggs, err := st.ListPairAggregates(context.Background(), model.HistoryConfig{})
	if err != nil {
		t.Fatalf("aggregates: %v", err)
	}
	if len(aggs) != 2 {
		t.Fatalf("expected 2 pairs, got %d", len(aggs))
	}
	en := aggs[0]
	if en.LangPair != "en-fr" || en.Count != 2 || en.TotalMs != 2000 || en.FastestMs != 800 || en.SlowestMs != 1200 || en.TotalChars != 30 || en.FailureCount != 1 {
		t.Fatalf("unexpected en-fr aggregate: %+v", en)
	}
	if aggs[1].LangPair != "fr-en" || aggs[1].Count != 1 || aggs[1].FailureCount != 0 {
		t.Fatalf("unexpected fr-en aggregate: %+v", aggs[1])
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	first, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := first.RecordTranslation(context.Background(), model.TranslationRecord{SessionID: "x", CreatedAt: time.Now(), LangPair: "en-fr", Succeeded: true}); err != nil {
		t.Fatalf("record: %v", err)
	}
	_ = first.Close()

	second, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = second.Close() }()
	records, err := second.ListTranslations(context.Background(), model.HistoryConfig{})
	if err != nil || len(records) != 1 {
		t.Fatalf("expected persisted record, got %d (%v)", len(records), err)
	}
}
