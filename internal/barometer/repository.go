package barometer

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteLayout = "2006-01-02 15:04:05"

// Repository defines barometer sample persistence.
type Repository interface {
	Save(ctx context.Context, samples []Sample) (int, error)
	ByDate(ctx context.Context, day time.Time) ([]Sample, error)
	Range(ctx context.Context, from, to time.Time) ([]Sample, error)
	Close() error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db     *sql.DB
	DBPath string
}

// NewSQLiteRepository opens (and if needed creates) the database at dbPath.
func NewSQLiteRepository(dbPath string, logger *slog.Logger) (*SQLiteRepository, error) {
	if dbPath == "" {
		dbPath = filepath.Join("data", "barometer.db")
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	logger.Info("opening barometer database", "path", dbPath)
	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS barometer_data (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		datetime TEXT NOT NULL UNIQUE,
		pressure REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_barometer_datetime ON barometer_data(datetime);`

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &SQLiteRepository{db: db, DBPath: dbPath}, nil
}

// Close closes the database connection.
func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Save inserts samples in one transaction. Samples whose datetime is already
// stored are skipped; the number of new rows is returned.
func (r *SQLiteRepository) Save(ctx context.Context, samples []Sample) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO barometer_data (datetime, pressure) VALUES (?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, s := range samples {
		res, err := stmt.ExecContext(ctx, s.Datetime.UTC().Format(sqliteLayout), s.Pressure)
		if err != nil {
			return 0, fmt.Errorf("failed to insert sample %s: %w", s.Datetime, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	return inserted, nil
}

// ByDate returns the samples of one UTC calendar day.
func (r *SQLiteRepository) ByDate(ctx context.Context, day time.Time) ([]Sample, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return r.query(ctx,
		`SELECT datetime, pressure FROM barometer_data WHERE datetime >= ? AND datetime < ? ORDER BY datetime`,
		start.Format(sqliteLayout), start.AddDate(0, 0, 1).Format(sqliteLayout))
}

// Range returns samples with from <= datetime <= to. Zero bounds are open.
func (r *SQLiteRepository) Range(ctx context.Context, from, to time.Time) ([]Sample, error) {
	lo, hi := "0000-01-01 00:00:00", "9999-12-31 23:59:59"
	if !from.IsZero() {
		lo = from.UTC().Format(sqliteLayout)
	}
	if !to.IsZero() {
		hi = to.UTC().Format(sqliteLayout)
	}
	return r.query(ctx,
		`SELECT datetime, pressure FROM barometer_data WHERE datetime >= ? AND datetime <= ? ORDER BY datetime`,
		lo, hi)
}

func (r *SQLiteRepository) query(ctx context.Context, q string, args ...any) ([]Sample, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query barometer data: %w", err)
	}
	defer rows.Close()

	var out []Sample
	for rows.Next() {
		var (
			dt string
			s  Sample
		)
		if err := rows.Scan(&dt, &s.Pressure); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		s.Datetime, err = time.ParseInLocation(sqliteLayout, dt, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("failed to parse datetime %q: %w", dt, err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
