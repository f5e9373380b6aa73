package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cactuswealth/wealth-analytics/internal/domain"
)

// portfolioRepository implements domain.PortfolioRepository
type portfolioRepository struct {
	db *DB
}

// NewPortfolioRepository creates a new portfolio repository
func NewPortfolioRepository(db *DB) domain.PortfolioRepository {
	return &portfolioRepository{db: db}
}

// GetWithPositions retrieves a portfolio, its owning advisor and its positions
func (r *portfolioRepository) GetWithPositions(ctx context.Context, id uuid.UUID) (*domain.Portfolio, error) {
	query := `
		SELECT p.id, p.name, p.client_id, c.owner_id
		FROM portfolios p
		JOIN clients c ON c.id = p.client_id
		WHERE p.id = $1
	`

	var portfolio domain.Portfolio
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&portfolio.ID,
		&portfolio.Name,
		&portfolio.ClientID,
		&portfolio.OwnerID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("portfolio %s %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get portfolio: %w", err)
	}

	positions, err := r.listPositions(ctx, id)
	if err != nil {
		return nil, err
	}
	portfolio.Positions = positions

	return &portfolio, nil
}

func (r *portfolioRepository) listPositions(ctx context.Context, portfolioID uuid.UUID) ([]domain.Position, error) {
	query := `
		SELECT pos.id, pos.portfolio_id, pos.quantity, pos.purchase_price,
		       a.id, a.ticker_symbol, a.name
		FROM positions pos
		JOIN assets a ON a.id = pos.asset_id
		WHERE pos.portfolio_id = $1
		ORDER BY a.ticker_symbol
	`

	rows, err := r.db.QueryContext(ctx, query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to list positions: %w", err)
	}
	defer rows.Close()

	var positions []domain.Position
	for rows.Next() {
		var pos domain.Position
		var quantityStr, priceStr string
		if err := rows.Scan(
			&pos.ID,
			&pos.PortfolioID,
			&quantityStr,
			&priceStr,
			&pos.Asset.ID,
			&pos.Asset.TickerSymbol,
			&pos.Asset.Name,
		); err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}

		if pos.Quantity, err = decimal.NewFromString(quantityStr); err != nil {
			return nil, fmt.Errorf("failed to parse quantity: %w", err)
		}
		if pos.PurchasePrice, err = decimal.NewFromString(priceStr); err != nil {
			return nil, fmt.Errorf("failed to parse purchase_price: %w", err)
		}
		positions = append(positions, pos)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate positions: %w", err)
	}

	return positions, nil
}

// ListIDs returns the IDs of every portfolio visible in scope
func (r *portfolioRepository) ListIDs(ctx context.Context, scope domain.Scope) ([]uuid.UUID, error) {
	query := `
		SELECT p.id
		FROM portfolios p
		JOIN clients c ON c.id = p.client_id
		WHERE ($1::uuid IS NULL OR c.owner_id = $1::uuid)
		ORDER BY p.id
	`

	rows, err := r.db.QueryContext(ctx, query, advisorArg(scope))
	if err != nil {
		return nil, fmt.Errorf("failed to list portfolios: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate portfolios: %w", err)
	}

	return ids, nil
}

// advisorArg converts a scope into the nullable advisor query parameter
func advisorArg(scope domain.Scope) any {
	if scope.AdvisorID == nil {
		return nil
	}
	return scope.AdvisorID.String()
}
