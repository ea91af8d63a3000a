package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/mgrant808/homeworth/api/internal/database"
	"github.com/mgrant808/homeworth/api/internal/models"
)

// MarketStatsRepository defines data access for suburb/city market
// aggregates used by the valuation pipeline's recency and volatility
// adjustments.
type MarketStatsRepository interface {
	// FindBySuburb returns the most recent statistics row for the given
	// suburb, optionally narrowed by city. Returns nil, nil when no
	// statistics exist (not an error); errors only signal database
	// failures.
	FindBySuburb(ctx context.Context, suburb string, city *string) (*models.MarketStatistics, error)
}

// marketStatsRepository is the concrete pgx-backed implementation.
type marketStatsRepository struct {
	db *database.Database
}

// NewMarketStatsRepository creates a new MarketStatsRepository instance.
func NewMarketStatsRepository(db *database.Database) MarketStatsRepository {
	return &marketStatsRepository{
		db: db,
	}
}

// FindBySuburb queries the market_statistics table for the latest
// aggregate matching the suburb (case-insensitive), preferring a row that
// also matches the city when one is supplied.
func (r *marketStatsRepository) FindBySuburb(ctx context.Context, suburb string, city *string) (*models.MarketStatistics, error) {
	query := `
		SELECT
			suburb,
			city,
			median_price,
			annual_growth,
			quarterly_growth,
			sales_volume,
			days_on_market,
			price_variability,
			source
		FROM market_statistics
		WHERE lower(suburb) = lower($1)
		  AND ($2::text IS NULL OR lower(city) = lower($2))
		ORDER BY computed_at DESC
		LIMIT 1
	`

	var stats models.MarketStatistics
	err := r.db.Pool.QueryRow(ctx, query, suburb, city).Scan(
		&stats.Suburb,
		&stats.City,
		&stats.MedianPrice,
		&stats.AnnualGrowth,
		&stats.QuarterlyGrowth,
		&stats.SalesVolume,
		&stats.DaysOnMarket,
		&stats.PriceVariability,
		&stats.Source,
	)

	// No statistics for this suburb is not an error at the repository level.
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query market statistics for suburb %q: %w", suburb, err)
	}

	return &stats, nil
}
