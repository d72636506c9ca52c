package recorder

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"SignalSentinel/internal/model"
)

// SQLiteRecorder persists signals and learning state to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log zerolog.Logger) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode lets dashboards read while the bot writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log.With().Str("component", "recorder").Logger()}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS signals (
			id          TEXT PRIMARY KEY,
			symbol      TEXT NOT NULL,
			timeframe   TEXT NOT NULL,
			direction   TEXT NOT NULL,
			strength    REAL,
			accuracy    REAL,
			indicators  TEXT,
			status      TEXT NOT NULL,
			outcome     TEXT NOT NULL DEFAULT 'unknown',
			created_at  INTEGER NOT NULL,
			resolved_at INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_created ON signals(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_series ON signals(symbol, timeframe)`,

		`CREATE TABLE IF NOT EXISTS indicator_weights (
			indicator  TEXT PRIMARY KEY,
			weight     REAL NOT NULL,
			updated_at INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS indicator_performance (
			indicator  TEXT PRIMARY KEY,
			success    INTEGER NOT NULL,
			total      INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// StoreSignal inserts a signal or updates the status of an existing one.
// A stored outcome is never overwritten.
func (r *SQLiteRecorder) StoreSignal(sig *model.Signal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	indicators, err := json.Marshal(sig.Indicators)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(`INSERT INTO signals
		(id, symbol, timeframe, direction, strength, accuracy, indicators, status, outcome, created_at)
		VALUES (?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET status = excluded.status`,
		sig.ID, sig.Symbol, string(sig.Timeframe), string(sig.Direction),
		sig.Strength, sig.Accuracy, string(indicators), string(sig.Status),
		string(model.OutcomeUnknown), sig.CreatedAt.Unix(),
	)
	return err
}

// UpdateOutcome sets the outcome of a signal whose outcome is still unknown.
func (r *SQLiteRecorder) UpdateOutcome(id string, profitable bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	outcome := model.OutcomeUnprofitable
	if profitable {
		outcome = model.OutcomeProfitable
	}
	res, err := r.db.Exec(`UPDATE signals SET outcome = ?, resolved_at = ?
		WHERE id = ? AND outcome = ?`,
		string(outcome), time.Now().Unix(), id, string(model.OutcomeUnknown),
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("update outcome %s: %w", id, ErrOutcomeResolved)
	}
	return nil
}

// RecentSignals returns the latest signals, newest first.
func (r *SQLiteRecorder) RecentSignals(limit int) ([]model.Signal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(`SELECT id, symbol, timeframe, direction, strength, accuracy,
		indicators, status, outcome, created_at
		FROM signals ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Signal
	for rows.Next() {
		var (
			s                                  model.Signal
			tf, dir, indicators, status, outcm string
			created                            int64
		)
		if err := rows.Scan(&s.ID, &s.Symbol, &tf, &dir, &s.Strength, &s.Accuracy,
			&indicators, &status, &outcm, &created); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(indicators), &s.Indicators); err != nil {
			return nil, fmt.Errorf("decode indicators of %s: %w", s.ID, err)
		}
		s.Timeframe = model.Timeframe(tf)
		s.Direction = model.Direction(dir)
		s.Status = model.SignalStatus(status)
		s.Outcome = model.Outcome(outcm)
		s.CreatedAt = time.Unix(created, 0)
		out = append(out, s)
	}
	return out, rows.Err()
}

// SaveWeights replaces the stored weight table.
func (r *SQLiteRecorder) SaveWeights(w model.WeightTable) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	now := time.Now().Unix()
	for ind, weight := range w {
		if _, err := tx.Exec(`INSERT INTO indicator_weights (indicator, weight, updated_at)
			VALUES (?,?,?)
			ON CONFLICT(indicator) DO UPDATE SET weight = excluded.weight, updated_at = excluded.updated_at`,
			string(ind), weight, now); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// LoadWeights returns the stored weights, empty when none were saved.
func (r *SQLiteRecorder) LoadWeights() (model.WeightTable, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT indicator, weight FROM indicator_weights`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(model.WeightTable)
	for rows.Next() {
		var ind string
		var w float64
		if err := rows.Scan(&ind, &w); err != nil {
			return nil, err
		}
		out[model.Indicator(ind)] = w
	}
	return out, rows.Err()
}

// SavePerformance replaces the stored performance records.
func (r *SQLiteRecorder) SavePerformance(p model.PerformanceTable) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	now := time.Now().Unix()
	for ind, rec := range p {
		if _, err := tx.Exec(`INSERT INTO indicator_performance (indicator, success, total, updated_at)
			VALUES (?,?,?,?)
			ON CONFLICT(indicator) DO UPDATE SET
				success = excluded.success, total = excluded.total, updated_at = excluded.updated_at`,
			string(ind), rec.Success, rec.Total, now); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// LoadPerformance returns the stored performance records.
func (r *SQLiteRecorder) LoadPerformance() (model.PerformanceTable, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT indicator, success, total FROM indicator_performance`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(model.PerformanceTable)
	for rows.Next() {
		var ind string
		var rec model.PerformanceRecord
		if err := rows.Scan(&ind, &rec.Success, &rec.Total); err != nil {
			return nil, err
		}
		out[model.Indicator(ind)] = rec
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
