package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cactuswealth/wealth-analytics/internal/domain"
)

// snapshotRepository implements domain.SnapshotRepository
type snapshotRepository struct {
	db  *DB
	now func() time.Time
}

// NewSnapshotRepository creates a new portfolio snapshot repository
func NewSnapshotRepository(db *DB) domain.SnapshotRepository {
	return &snapshotRepository{db: db, now: time.Now}
}

// Create appends a new snapshot
func (r *snapshotRepository) Create(ctx context.Context, snapshot *domain.PortfolioSnapshot) error {
	query := `
		INSERT INTO portfolio_snapshots (id, portfolio_id, value, timestamp)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.ExecContext(ctx, query,
		snapshot.ID,
		snapshot.PortfolioID,
		snapshot.Value.String(),
		snapshot.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert portfolio snapshot: %w", err)
	}

	return nil
}

// LatestBefore retrieves the newest snapshot taken at or before cutoff, or nil if there is none
func (r *snapshotRepository) LatestBefore(ctx context.Context, portfolioID uuid.UUID, cutoff time.Time) (*domain.PortfolioSnapshot, error) {
	query := `
		SELECT id, portfolio_id, value, timestamp
		FROM portfolio_snapshots
		WHERE portfolio_id = $1 AND timestamp <= $2
		ORDER BY timestamp DESC
		LIMIT 1
	`

	snapshot, err := scanSnapshot(r.db.QueryRowContext(ctx, query, portfolioID, cutoff))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest snapshot: %w", err)
	}

	return snapshot, nil
}

// ListByPortfolio retrieves up to limit snapshots of a portfolio, newest first
func (r *snapshotRepository) ListByPortfolio(ctx context.Context, portfolioID uuid.UUID, limit int) ([]*domain.PortfolioSnapshot, error) {
	query := `
		SELECT id, portfolio_id, value, timestamp
		FROM portfolio_snapshots
		WHERE portfolio_id = $1
		ORDER BY timestamp DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, portfolioID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*domain.PortfolioSnapshot
	for rows.Next() {
		snapshot, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snapshots = append(snapshots, snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snapshots: %w", err)
	}

	return snapshots, nil
}

// AggregateByDate sums snapshot values per UTC calendar date over the last windowDays days
func (r *snapshotRepository) AggregateByDate(ctx context.Context, scope domain.Scope, windowDays int) ([]domain.AUMPoint, error) {
	query := `
		SELECT (s.timestamp AT TIME ZONE 'UTC')::date AS day, SUM(s.value)
		FROM portfolio_snapshots s
		JOIN portfolios p ON p.id = s.portfolio_id
		JOIN clients c ON c.id = p.client_id
		WHERE s.timestamp >= $1
		  AND ($2::uuid IS NULL OR c.owner_id = $2::uuid)
		GROUP BY day
		ORDER BY day
	`

	since := r.now().UTC().AddDate(0, 0, -windowDays)
	rows, err := r.db.QueryContext(ctx, query, since, advisorArg(scope))
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate snapshots: %w", err)
	}
	defer rows.Close()

	var points []domain.AUMPoint
	for rows.Next() {
		var day time.Time
		var totalStr string
		if err := rows.Scan(&day, &totalStr); err != nil {
			return nil, fmt.Errorf("failed to scan aum point: %w", err)
		}
		total, err := decimal.NewFromString(totalStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse aum value: %w", err)
		}
		points = append(points, domain.AUMPoint{Date: domain.CalendarDate(day), Value: total})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate aum points: %w", err)
	}

	return points, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (*domain.PortfolioSnapshot, error) {
	var snapshot domain.PortfolioSnapshot
	var valueStr string

	if err := row.Scan(
		&snapshot.ID,
		&snapshot.PortfolioID,
		&valueStr,
		&snapshot.Timestamp,
	); err != nil {
		return nil, err
	}

	value, err := decimal.NewFromString(valueStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse snapshot value: %w", err)
	}
	snapshot.Value = value

	return &snapshot, nil
}
