package gormrepository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"coinpulse/internal/models"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

// tx falls back to the base handle so read helpers can be reused inside and
// outside transactions.
func (s *Store) handle(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db.WithContext(ctx)
}

// --- coins -------------------------------------------------------------------

func (s *Store) EnsureCoinTx(ctx context.Context, tx *gorm.DB, coin *models.Coin) error {
	if s == nil || s.db == nil || coin == nil {
		return nil
	}
	if strings.TrimSpace(coin.Slug) == "" {
		return errors.New("coin slug is required")
	}
	h := s.handle(ctx, tx)
	// Insert-if-absent on the slug unique index, then read back so callers
	// always see the persisted row id.
	if err := h.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slug"}},
		DoNothing: true,
	}).Create(coin).Error; err != nil {
		return err
	}
	if coin.ID != 0 {
		return nil
	}
	return h.Where("slug = ?", coin.Slug).First(coin).Error
}

func (s *Store) GetCoinBySlug(ctx context.Context, slug string) (*models.Coin, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Coin
	err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListCoins(ctx context.Context) ([]models.Coin, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Coin
	if err := s.db.WithContext(ctx).
		Model(&models.Coin{}).
		Order("created_at asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// --- facet appends -----------------------------------------------------------

func (s *Store) AppendDirectionTx(ctx context.Context, tx *gorm.DB, item *models.DirectionEntry) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.handle(ctx, tx).Create(item).Error
}

func (s *Store) AppendTextTx(ctx context.Context, tx *gorm.DB, item *models.TextEntry) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.handle(ctx, tx).Create(item).Error
}

func (s *Store) AppendConfidenceTx(ctx context.Context, tx *gorm.DB, item *models.ConfidenceEntry) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.handle(ctx, tx).Create(item).Error
}

func (s *Store) AppendTargetPriceTx(ctx context.Context, tx *gorm.DB, item *models.TargetPriceEntry) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.handle(ctx, tx).Create(item).Error
}

func (s *Store) AppendFulfillmentTimeTx(ctx context.Context, tx *gorm.DB, item *models.FulfillmentTimeEntry) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.handle(ctx, tx).Create(item).Error
}

func (s *Store) AppendFulfilledTx(ctx context.Context, tx *gorm.DB, item *models.FulfilledEntry) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.handle(ctx, tx).Create(item).Error
}

// --- facet reads -------------------------------------------------------------

func (s *Store) ListFacets(ctx context.Context, coinID uint64, timeframe string) (*models.PredictionFacets, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	scope := func(q *gorm.DB) *gorm.DB {
		q = q.Where("coin_id = ?", coinID)
		if timeframe != "" {
			q = q.Where("timeframe = ?", timeframe)
		}
		return q.Order("id asc")
	}

	var facets models.PredictionFacets
	if err := scope(s.db.WithContext(ctx).Model(&models.DirectionEntry{})).Find(&facets.Directions).Error; err != nil {
		return nil, err
	}
	if err := scope(s.db.WithContext(ctx).Model(&models.TextEntry{})).Find(&facets.Texts).Error; err != nil {
		return nil, err
	}
	if err := scope(s.db.WithContext(ctx).Model(&models.ConfidenceEntry{})).Find(&facets.Confidence).Error; err != nil {
		return nil, err
	}
	if err := scope(s.db.WithContext(ctx).Model(&models.TargetPriceEntry{})).Find(&facets.TargetPrices).Error; err != nil {
		return nil, err
	}
	if err := scope(s.db.WithContext(ctx).Model(&models.FulfillmentTimeEntry{})).Find(&facets.FulfillmentTimes).Error; err != nil {
		return nil, err
	}
	if err := scope(s.db.WithContext(ctx).Model(&models.FulfilledEntry{})).Find(&facets.Fulfilled).Error; err != nil {
		return nil, err
	}
	return &facets, nil
}

// --- facet deletes -----------------------------------------------------------

func (s *Store) DeleteDirectionsTx(ctx context.Context, tx *gorm.DB, coinID uint64, timeframe, contributorID string) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.handle(ctx, tx).
		Where("coin_id = ?", coinID).
		Where("timeframe = ?", timeframe).
		Where("contributor_id = ?", contributorID).
		Delete(&models.DirectionEntry{}).Error
}

// DeleteFacetsByTimeframeTx strips texts, confidence, target prices,
// fulfillment times and fulfilled flags for the whole timeframe regardless of
// contributor. The facet rows carry no shared submission id, so there is no
// narrower unit to delete; the over-broad scope matches the retraction
// semantics documented for this system.
func (s *Store) DeleteFacetsByTimeframeTx(ctx context.Context, tx *gorm.DB, coinID uint64, timeframe string) error {
	if s == nil || s.db == nil {
		return nil
	}
	h := s.handle(ctx, tx)
	for _, model := range []any{
		&models.TextEntry{},
		&models.ConfidenceEntry{},
		&models.TargetPriceEntry{},
		&models.FulfillmentTimeEntry{},
		&models.FulfilledEntry{},
	} {
		if err := h.
			Where("coin_id = ?", coinID).
			Where("timeframe = ?", timeframe).
			Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}

// --- user prediction ledger --------------------------------------------------

func (s *Store) InsertUserPredictionTx(ctx context.Context, tx *gorm.DB, item *models.UserPrediction) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.handle(ctx, tx).Create(item).Error
}

func (s *Store) ListUserPredictions(ctx context.Context, userID string) ([]models.UserPrediction, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.UserPrediction
	if err := s.db.WithContext(ctx).
		Model(&models.UserPrediction{}).
		Where("user_id = ?", userID).
		Order("created_at asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// SaveOutcomes persists resolver mutations in one transaction. Only outcome
// and fulfilled_at ever change after insert.
func (s *Store) SaveOutcomes(ctx context.Context, items []models.UserPrediction) error {
	if s == nil || s.db == nil || len(items) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range items {
			if err := tx.Model(&models.UserPrediction{}).
				Where("id = ?", items[i].ID).
				Updates(map[string]any{
					"outcome":      items[i].Outcome,
					"fulfilled_at": items[i].FulfilledAt,
				}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) DeleteUserPredictionTx(ctx context.Context, tx *gorm.DB, userID, slug, timeframe string) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.handle(ctx, tx).
		Where("user_id = ?", userID).
		Where("slug = ?", slug).
		Where("timeframe = ?", timeframe).
		Delete(&models.UserPrediction{}).Error
}

func (s *Store) ListPendingPredictions(ctx context.Context, limit int) ([]models.UserPrediction, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 500
	}
	var items []models.UserPrediction
	if err := s.db.WithContext(ctx).
		Model(&models.UserPrediction{}).
		Where("outcome = ?", models.OutcomePending).
		Order("created_at asc").
		Limit(limit).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// --- summary snapshots -------------------------------------------------------

func (s *Store) UpsertSummarySnapshot(ctx context.Context, item *models.SummarySnapshot) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "slug"}, {Name: "timeframe"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total",
			"positive",
			"negative",
			"verdict",
			"summary",
			"most_common_direction",
			"notable_reasons",
			"raw_response",
			"updated_at",
		}),
	}).Create(item).Error
}

func (s *Store) GetSummarySnapshot(ctx context.Context, slug, timeframe string) (*models.SummarySnapshot, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.SummarySnapshot
	err := s.db.WithContext(ctx).
		Where("slug = ?", slug).
		Where("timeframe = ?", timeframe).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}
