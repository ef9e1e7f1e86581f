// Package store handles SQLite persistence of translation history.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/tuilate/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for translation history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS translations (
			id INTEGER PRIMARY KEY,
			session_id TEXT NOT NULL,
			created_at TEXT NOT NULL,
			lang_pair TEXT NOT NULL,
			source_chars INTEGER NOT NULL,
			elapsed_ms INTEGER NOT NULL,
			server_reported INTEGER NOT NULL,
			succeeded INTEGER NOT NULL,
			error TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE INDEX IF NOT EXISTS idx_translations_created_at ON translations(created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_translations_lang_pair ON translations(lang_pair);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// RecordTranslation stores one translation attempt.
func (s *Store) RecordTranslation(ctx context.Context, rec model.TranslationRecord) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO translations (session_id, created_at, lang_pair, source_chars, elapsed_ms, server_reported, succeeded, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.SessionID,
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
		rec.LangPair,
		rec.SourceChars,
		rec.ElapsedMs,
		boolInt(rec.ServerReported),
		boolInt(rec.Succeeded),
		rec.Error,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListTranslations returns history records filtered by cfg, oldest first.
func (s *Store) ListTranslations(ctx context.Context, cfg model.HistoryConfig) ([]model.TranslationRecord, error) {
	clauses, args := historyFilter(cfg)
	query := fmt.Sprintf(`SELECT session_id, created_at, lang_pair, source_chars, elapsed_ms, server_reported, succeeded, error
		FROM translations
		WHERE %s
		ORDER BY created_at ASC, id ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var records []model.TranslationRecord
	for rows.Next() {
		var rec model.TranslationRecord
		var createdAt string
		var serverReported, succeeded int
		if err := rows.Scan(&rec.SessionID, &createdAt, &rec.LangPair, &rec.SourceChars, &rec.ElapsedMs, &serverReported, &succeeded, &rec.Error); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, err
		}
		rec.CreatedAt = parsed
		rec.ServerReported = serverReported != 0
		rec.Succeeded = succeeded != 0
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if cfg.Last > 0 && len(records) > cfg.Last {
		records = records[len(records)-cfg.Last:]
	}
	return records, nil
}

// ListPairAggregates aggregates history per language pair.
func (s *Store) ListPairAggregates(ctx context.Context, cfg model.HistoryConfig) ([]model.PairAggregate, error) {
	clauses, args := historyFilter(cfg)
	query := fmt.Sprintf(`SELECT lang_pair,
			SUM(CASE WHEN succeeded = 1 THEN 1 ELSE 0 END) AS ok_count,
			COALESCE(SUM(CASE WHEN succeeded = 1 THEN elapsed_ms END), 0) AS total_ms,
			COALESCE(MIN(CASE WHEN succeeded = 1 THEN elapsed_ms END), 0) AS fastest_ms,
			COALESCE(MAX(CASE WHEN succeeded = 1 THEN elapsed_ms END), 0) AS slowest_ms,
			COALESCE(SUM(CASE WHEN succeeded = 1 THEN source_chars END), 0) AS total_chars,
			SUM(CASE WHEN succeeded = 0 THEN 1 ELSE 0 END) AS failures
		FROM translations
		WHERE %s
		GROUP BY lang_pair
		ORDER BY lang_pair ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.PairAggregate
	for rows.Next() {
		var agg model.PairAggregate
		if err := rows.Scan(&agg.LangPair, &agg.Count, &agg.TotalMs, &agg.FastestMs, &agg.SlowestMs, &agg.TotalChars, &agg.FailureCount); err != nil {
			return nil, err
		}
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func historyFilter(cfg model.HistoryConfig) ([]string, []any) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.LangPair != "" {
		clauses = append(clauses, "lang_pair = ?")
		args = append(args, cfg.LangPair)
	}
	if cfg.Since != nil {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, cfg.Since.UTC().Format(time.RFC3339Nano))
	}
	return clauses, args
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
