package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"coinpulse/internal/ai"
	"coinpulse/internal/models"
)

// stubRepo is a test-only in-memory implementation of repository.Repository.
// Transactions are collapsed: fn runs against a nil *gorm.DB and the maps
// mutate immediately.
type stubRepo struct {
	coins            []models.Coin
	directions       []models.DirectionEntry
	texts            []models.TextEntry
	confidence       []models.ConfidenceEntry
	targetPrices     []models.TargetPriceEntry
	fulfillmentTimes []models.FulfillmentTimeEntry
	fulfilled        []models.FulfilledEntry
	userPredictions  []models.UserPrediction
	snapshots        map[string]models.SummarySnapshot

	nextCoinID uint64
	nextLedger uint64
	saveCalls  int
}

func newStubRepo() *stubRepo {
	return &stubRepo{snapshots: map[string]models.SummarySnapshot{}}
}

func (s *stubRepo) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error { return fn(nil) }

func (s *stubRepo) EnsureCoinTx(ctx context.Context, tx *gorm.DB, coin *models.Coin) error {
	for _, existing := range s.coins {
		if existing.Slug == coin.Slug {
			*coin = existing
			return nil
		}
	}
	s.nextCoinID++
	coin.ID = s.nextCoinID
	s.coins = append(s.coins, *coin)
	return nil
}

func (s *stubRepo) GetCoinBySlug(ctx context.Context, slug string) (*models.Coin, error) {
	for i := range s.coins {
		if s.coins[i].Slug == slug {
			coin := s.coins[i]
			return &coin, nil
		}
	}
	return nil, nil
}

func (s *stubRepo) ListCoins(ctx context.Context) ([]models.Coin, error) {
	return append([]models.Coin(nil), s.coins...), nil
}

func (s *stubRepo) AppendDirectionTx(ctx context.Context, tx *gorm.DB, item *models.DirectionEntry) error {
	item.ID = uint64(len(s.directions) + 1)
	s.directions = append(s.directions, *item)
	return nil
}

func (s *stubRepo) AppendTextTx(ctx context.Context, tx *gorm.DB, item *models.TextEntry) error {
	item.ID = uint64(len(s.texts) + 1)
	s.texts = append(s.texts, *item)
	return nil
}

func (s *stubRepo) AppendConfidenceTx(ctx context.Context, tx *gorm.DB, item *models.ConfidenceEntry) error {
	item.ID = uint64(len(s.confidence) + 1)
	s.confidence = append(s.confidence, *item)
	return nil
}

func (s *stubRepo) AppendTargetPriceTx(ctx context.Context, tx *gorm.DB, item *models.TargetPriceEntry) error {
	item.ID = uint64(len(s.targetPrices) + 1)
	s.targetPrices = append(s.targetPrices, *item)
	return nil
}

func (s *stubRepo) AppendFulfillmentTimeTx(ctx context.Context, tx *gorm.DB, item *models.FulfillmentTimeEntry) error {
	item.ID = uint64(len(s.fulfillmentTimes) + 1)
	s.fulfillmentTimes = append(s.fulfillmentTimes, *item)
	return nil
}

func (s *stubRepo) AppendFulfilledTx(ctx context.Context, tx *gorm.DB, item *models.FulfilledEntry) error {
	item.ID = uint64(len(s.fulfilled) + 1)
	s.fulfilled = append(s.fulfilled, *item)
	return nil
}

func (s *stubRepo) ListFacets(ctx context.Context, coinID uint64, timeframe string) (*models.PredictionFacets, error) {
	match := func(cid uint64, tf string) bool {
		return cid == coinID && (timeframe == "" || tf == timeframe)
	}
	facets := &models.PredictionFacets{}
	for _, d := range s.directions {
		if match(d.CoinID, d.Timeframe) {
			facets.Directions = append(facets.Directions, d)
		}
	}
	for _, t := range s.texts {
		if match(t.CoinID, t.Timeframe) {
			facets.Texts = append(facets.Texts, t)
		}
	}
	for _, c := range s.confidence {
		if match(c.CoinID, c.Timeframe) {
			facets.Confidence = append(facets.Confidence, c)
		}
	}
	for _, p := range s.targetPrices {
		if match(p.CoinID, p.Timeframe) {
			facets.TargetPrices = append(facets.TargetPrices, p)
		}
	}
	for _, f := range s.fulfillmentTimes {
		if match(f.CoinID, f.Timeframe) {
			facets.FulfillmentTimes = append(facets.FulfillmentTimes, f)
		}
	}
	for _, f := range s.fulfilled {
		if match(f.CoinID, f.Timeframe) {
			facets.Fulfilled = append(facets.Fulfilled, f)
		}
	}
	return facets, nil
}

func (s *stubRepo) DeleteDirectionsTx(ctx context.Context, tx *gorm.DB, coinID uint64, timeframe, contributorID string) error {
	kept := s.directions[:0]
	for _, d := range s.directions {
		if d.CoinID == coinID && d.Timeframe == timeframe && d.ContributorID == contributorID {
			continue
		}
		kept = append(kept, d)
	}
	s.directions = kept
	return nil
}

func (s *stubRepo) DeleteFacetsByTimeframeTx(ctx context.Context, tx *gorm.DB, coinID uint64, timeframe string) error {
	keptTexts := s.texts[:0]
	for _, t := range s.texts {
		if t.CoinID == coinID && t.Timeframe == timeframe {
			continue
		}
		keptTexts = append(keptTexts, t)
	}
	s.texts = keptTexts

	keptConf := s.confidence[:0]
	for _, c := range s.confidence {
		if c.CoinID == coinID && c.Timeframe == timeframe {
			continue
		}
		keptConf = append(keptConf, c)
	}
	s.confidence = keptConf

	keptPrices := s.targetPrices[:0]
	for _, p := range s.targetPrices {
		if p.CoinID == coinID && p.Timeframe == timeframe {
			continue
		}
		keptPrices = append(keptPrices, p)
	}
	s.targetPrices = keptPrices

	keptTimes := s.fulfillmentTimes[:0]
	for _, f := range s.fulfillmentTimes {
		if f.CoinID == coinID && f.Timeframe == timeframe {
			continue
		}
		keptTimes = append(keptTimes, f)
	}
	s.fulfillmentTimes = keptTimes

	keptFulfilled := s.fulfilled[:0]
	for _, f := range s.fulfilled {
		if f.CoinID == coinID && f.Timeframe == timeframe {
			continue
		}
		keptFulfilled = append(keptFulfilled, f)
	}
	s.fulfilled = keptFulfilled
	return nil
}

func (s *stubRepo) InsertUserPredictionTx(ctx context.Context, tx *gorm.DB, item *models.UserPrediction) error {
	s.nextLedger++
	item.ID = s.nextLedger
	s.userPredictions = append(s.userPredictions, *item)
	return nil
}

func (s *stubRepo) ListUserPredictions(ctx context.Context, userID string) ([]models.UserPrediction, error) {
	var out []models.UserPrediction
	for _, p := range s.userPredictions {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubRepo) SaveOutcomes(ctx context.Context, items []models.UserPrediction) error {
	s.saveCalls++
	for _, item := range items {
		for i := range s.userPredictions {
			if s.userPredictions[i].ID == item.ID {
				s.userPredictions[i].Outcome = item.Outcome
				s.userPredictions[i].FulfilledAt = item.FulfilledAt
			}
		}
	}
	return nil
}

func (s *stubRepo) DeleteUserPredictionTx(ctx context.Context, tx *gorm.DB, userID, slug, timeframe string) error {
	kept := s.userPredictions[:0]
	for _, p := range s.userPredictions {
		if p.UserID == userID && p.Slug == slug && p.Timeframe == timeframe {
			continue
		}
		kept = append(kept, p)
	}
	s.userPredictions = kept
	return nil
}

func (s *stubRepo) ListPendingPredictions(ctx context.Context, limit int) ([]models.UserPrediction, error) {
	var out []models.UserPrediction
	for _, p := range s.userPredictions {
		if p.Outcome != models.OutcomePending {
			continue
		}
		out = append(out, p)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *stubRepo) UpsertSummarySnapshot(ctx context.Context, item *models.SummarySnapshot) error {
	s.snapshots[item.Slug+"|"+item.Timeframe] = *item
	return nil
}

func (s *stubRepo) GetSummarySnapshot(ctx context.Context, slug, timeframe string) (*models.SummarySnapshot, error) {
	snap, ok := s.snapshots[slug+"|"+timeframe]
	if !ok {
		return nil, nil
	}
	return &snap, nil
}

// stubPrices serves fixed prices per bare symbol and records lookups.
type stubPrices struct {
	prices map[string]decimal.Decimal
	err    error
	calls  []string
}

func (s *stubPrices) CurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	s.calls = append(s.calls, symbol)
	if s.err != nil {
		return decimal.Zero, s.err
	}
	p, ok := s.prices[strings.ToUpper(symbol)]
	if !ok {
		return decimal.Zero, context.DeadlineExceeded
	}
	return p, nil
}

type stubCoherence struct {
	result ai.CoherenceResult
	err    error
}

func (s *stubCoherence) CoherenceCheck(ctx context.Context, direction, text string) (ai.CoherenceResult, error) {
	if s.err != nil {
		return ai.CoherenceResult{}, s.err
	}
	return s.result, nil
}

type stubSummarizer struct {
	response string
	err      error
	prompts  []string
}

func (s *stubSummarizer) GenerateContent(ctx context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}
