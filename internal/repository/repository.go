package repository

import (
	"context"

	"gorm.io/gorm"

	"coinpulse/internal/models"
)

// Repository is the persistence surface for the prediction engine. Facet
// appends are intentionally independent per facet table; the aggregation and
// deletion paths rely on that shape.
type Repository interface {
	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error

	// Coin aggregates. EnsureCoinTx is an insert-if-absent keyed on slug so
	// two concurrent first submissions cannot both create the row.
	EnsureCoinTx(ctx context.Context, tx *gorm.DB, coin *models.Coin) error
	GetCoinBySlug(ctx context.Context, slug string) (*models.Coin, error)
	ListCoins(ctx context.Context) ([]models.Coin, error)

	// Facet appends (one row per facet per submission, no shared id).
	AppendDirectionTx(ctx context.Context, tx *gorm.DB, item *models.DirectionEntry) error
	AppendTextTx(ctx context.Context, tx *gorm.DB, item *models.TextEntry) error
	AppendConfidenceTx(ctx context.Context, tx *gorm.DB, item *models.ConfidenceEntry) error
	AppendTargetPriceTx(ctx context.Context, tx *gorm.DB, item *models.TargetPriceEntry) error
	AppendFulfillmentTimeTx(ctx context.Context, tx *gorm.DB, item *models.FulfillmentTimeEntry) error
	AppendFulfilledTx(ctx context.Context, tx *gorm.DB, item *models.FulfilledEntry) error

	// Facet reads. Timeframe == "" means unfiltered.
	ListFacets(ctx context.Context, coinID uint64, timeframe string) (*models.PredictionFacets, error)

	// Facet deletes. Directions are scoped to the contributor; the remaining
	// five facets are scoped by timeframe only, matching the historical
	// deletion behavior.
	DeleteDirectionsTx(ctx context.Context, tx *gorm.DB, coinID uint64, timeframe, contributorID string) error
	DeleteFacetsByTimeframeTx(ctx context.Context, tx *gorm.DB, coinID uint64, timeframe string) error

	// User prediction ledger.
	InsertUserPredictionTx(ctx context.Context, tx *gorm.DB, item *models.UserPrediction) error
	ListUserPredictions(ctx context.Context, userID string) ([]models.UserPrediction, error)
	SaveOutcomes(ctx context.Context, items []models.UserPrediction) error
	DeleteUserPredictionTx(ctx context.Context, tx *gorm.DB, userID, slug, timeframe string) error
	ListPendingPredictions(ctx context.Context, limit int) ([]models.UserPrediction, error)

	// AI summary cache (best-effort, never load-bearing).
	UpsertSummarySnapshot(ctx context.Context, item *models.SummarySnapshot) error
	GetSummarySnapshot(ctx context.Context, slug, timeframe string) (*models.SummarySnapshot, error)
}
