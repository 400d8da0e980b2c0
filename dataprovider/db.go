// File: dataprovider/db.go
package dataprovider

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	utils "cointrack/utilities"

	_ "github.com/mattn/go-sqlite3"
)

// Series names for the three parallel chart series.
const (
	SeriesPrices       = "prices"
	SeriesMarketCaps   = "market_caps"
	SeriesTotalVolumes = "total_volumes"
)

// SQLiteCache persists chart series points so historical data survives
// restarts. One row per (coin, series, timestamp); re-saving a point for an
// existing timestamp replaces it.
type SQLiteCache struct {
	db *sql.DB
}

func NewSQLiteCache(cfg utils.CacheConfig) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite3", cfg.DBPath)
	if err != nil {
		return nil, err
	}
	schema := `
	CREATE TABLE IF NOT EXISTS chart_points (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		coin_id TEXT NOT NULL,
		series TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		value REAL NOT NULL,
		UNIQUE(coin_id, series, timestamp)
	);
	CREATE INDEX IF NOT EXISTS idx_coin_series_timestamp ON chart_points (coin_id, series, timestamp);
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, err
	}
	return &SQLiteCache{db: db}, nil
}

// SaveSeries upserts all points of one series for a coin in a single
// transaction.
func (s *SQLiteCache) SaveSeries(coinID, series string, points [][2]float64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin chart save transaction: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO chart_points (coin_id, series, timestamp, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to prepare chart save statement: %w", err)
	}
	defer stmt.Close()

	for _, p := range points {
		if _, err := stmt.Exec(coinID, series, int64(p[0]), p[1]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to save chart point for %s/%s: %w", coinID, series, err)
		}
	}
	return tx.Commit()
}

// GetSeries returns the points of one series for a coin between start and end
// (epoch millis, inclusive), ordered by timestamp ascending.
func (s *SQLiteCache) GetSeries(coinID, series string, start, end int64) ([][2]float64, error) {
	rows, err := s.db.Query(`SELECT timestamp, value FROM chart_points WHERE coin_id=? AND series=? AND timestamp BETWEEN ? AND ? ORDER BY timestamp ASC`,
		coinID, series, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points [][2]float64
	for rows.Next() {
		var ts int64
		var value float64
		if err := rows.Scan(&ts, &value); err != nil {
			return nil, err
		}
		points = append(points, [2]float64{float64(ts), value})
	}
	return points, rows.Err()
}

// LatestTimestamp returns the newest stored timestamp for a coin's series, or
// zero when nothing is cached.
func (s *SQLiteCache) LatestTimestamp(coinID, series string) (int64, error) {
	var ts sql.NullInt64
	err := s.db.QueryRow(`SELECT MAX(timestamp) FROM chart_points WHERE coin_id=? AND series=?`, coinID, series).Scan(&ts)
	if err != nil {
		return 0, err
	}
	return ts.Int64, nil
}

// CleanupOldPoints removes chart points older than the cutoff.
func (s *SQLiteCache) CleanupOldPoints(olderThan time.Time) error {
	_, err := s.db.Exec(`DELETE FROM chart_points WHERE timestamp < ?`, olderThan.UnixMilli())
	return err
}

func (s *SQLiteCache) Close() error {
	return s.db.Close()
}

// StartScheduledCleanup prunes stale chart points every interval until the
// process exits.
func (s *SQLiteCache) StartScheduledCleanup(interval time.Duration, retentionDays int) {
	go func() {
		for {
			cutoff := time.Now().AddDate(0, 0, -retentionDays)
			if err := s.CleanupOldPoints(cutoff); err != nil {
				log.Printf("Scheduled chart cleanup error: %v", err)
			}
			time.Sleep(interval)
		}
	}()
}
