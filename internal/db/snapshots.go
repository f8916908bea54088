package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/j-veylop/bookdash-tui/internal/models"
)

// InsertSnapshot stores s and sets its ID.
func (db *DB) InsertSnapshot(ctx context.Context, s *models.Snapshot) error {
	query := `
		INSERT INTO snapshots (
			recorded_at, total_books, priced_books, in_stock, out_of_stock,
			min_price, max_price, avg_price
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	recordedAt := s.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now()
		s.RecordedAt = recordedAt
	}

	result, err := db.ExecContext(ctx, query,
		recordedAt.UTC().Format(timeLayout),
		s.TotalBooks,
		s.PricedBooks,
		s.InStock,
		s.OutOfStock,
		nullFloat(s.MinPrice),
		nullFloat(s.MaxPrice),
		nullFloat(s.AvgPrice),
	)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	id, err := result.LastInsertId()
	if err == nil {
		s.ID = id
	}

	return nil
}

// GetSnapshots returns snapshots within the range, oldest first.
func (db *DB) GetSnapshots(ctx context.Context, tr models.TimeRange) ([]models.Snapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM snapshots`
	var args []any
	if since := tr.Since(time.Now()); !since.IsZero() {
		query += ` WHERE recorded_at >= ?`
		args = append(args, since.UTC().Format(timeLayout))
	}
	query += ` ORDER BY recorded_at ASC, id ASC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var snapshots []models.Snapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, *s)
	}

	return snapshots, rows.Err()
}

// LatestSnapshot returns the most recent snapshot, or nil when none exist.
func (db *DB) LatestSnapshot(ctx context.Context) (*models.Snapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM snapshots ORDER BY recorded_at DESC, id DESC LIMIT 1`

	s, err := scanSnapshot(db.QueryRowContext(ctx, query))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// CountSnapshots returns the number of stored snapshots.
func (db *DB) CountSnapshots(ctx context.Context) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM snapshots`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count snapshots: %w", err)
	}
	return n, nil
}

// PruneSnapshots deletes snapshots recorded before cutoff.
func (db *DB) PruneSnapshots(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := db.ExecContext(ctx, `DELETE FROM snapshots WHERE recorded_at < ?`,
		cutoff.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("failed to prune snapshots: %w", err)
	}
	return result.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row scanner) (*models.Snapshot, error) {
	var s models.Snapshot
	var recordedAt string
	var minPrice, maxPrice, avgPrice sql.NullFloat64

	err := row.Scan(
		&s.ID,
		&recordedAt,
		&s.TotalBooks,
		&s.PricedBooks,
		&s.InStock,
		&s.OutOfStock,
		&minPrice,
		&maxPrice,
		&avgPrice,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan snapshot: %w", err)
	}

	t, err := time.ParseInLocation(timeLayout, recordedAt, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("invalid snapshot timestamp %q: %w", recordedAt, err)
	}
	s.RecordedAt = t.Local()
	s.MinPrice = floatPtr(minPrice)
	s.MaxPrice = floatPtr(maxPrice)
	s.AvgPrice = floatPtr(avgPrice)

	return &s, nil
}

func nullFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	f := n.Float64
	return &f
}
