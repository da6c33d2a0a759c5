package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"coinpulse/internal/models"
	"coinpulse/internal/repository"
)

// ResolvedPrediction is the reconciled view of one ledger entry returned to
// the user. IsFulfilled reports the live predicate for this pass, which can
// be true even when the stored outcome is already expired.
type ResolvedPrediction struct {
	Symbol          string          `json:"symbol"`
	Slug            string          `json:"slug"`
	Logo            string          `json:"logo"`
	TargetPrice     decimal.Decimal `json:"targetPrice"`
	PriceWhenVoting string          `json:"priceWhenVoting"`
	Direction       string          `json:"direction"`
	Timeframe       string          `json:"timeframe"`
	Confidence      string          `json:"confidence"`
	IsFulfilled     bool            `json:"isFulfilled"`
	Outcome         string          `json:"outcome"`
	CreatedAt       time.Time       `json:"createdAt"`
	FulfilledAt     *time.Time      `json:"fulfilledAt"`
}

// Resolver reconciles ledger entries against live prices. It is idempotent:
// outcomes only move pending -> expired or pending -> fulfilled, and a second
// pass over already-resolved entries changes nothing.
type Resolver struct {
	Repo   repository.Repository
	Prices PriceGateway
	Logger *zap.Logger
	Now    func() time.Time
}

func (r *Resolver) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now().UTC()
}

// ResolveForUser reconciles and returns the user's predictions. Mutations,
// if any, are persisted in a single batched save before returning.
func (r *Resolver) ResolveForUser(ctx context.Context, userID string) ([]ResolvedPrediction, error) {
	entries, err := r.Repo.ListUserPredictions(ctx, userID)
	if err != nil {
		return nil, err
	}
	results, changed := r.reconcile(ctx, entries)
	if len(changed) > 0 {
		if err := r.Repo.SaveOutcomes(ctx, changed); err != nil {
			return nil, err
		}
	}
	return results, nil
}

// Sweep reconciles pending entries across all users. Used by the scheduled
// job so outcomes stay fresh for users who never fetch their list.
func (r *Resolver) Sweep(ctx context.Context, batchSize int) (int, error) {
	entries, err := r.Repo.ListPendingPredictions(ctx, batchSize)
	if err != nil {
		return 0, err
	}
	_, changed := r.reconcile(ctx, entries)
	if len(changed) == 0 {
		return 0, nil
	}
	if err := r.Repo.SaveOutcomes(ctx, changed); err != nil {
		return 0, err
	}
	return len(changed), nil
}

// reconcile applies, per entry and in this order: the expiry transition,
// then the price-based fulfillment transition. Expiry runs first, so an
// entry whose deadline has passed never becomes fulfilled in the same pass
// even if the price would now satisfy the target. Prices are cached per
// symbol for the duration of the pass; a failed fetch leaves the entry's
// outcome unchanged apart from any expiry already applied.
func (r *Resolver) reconcile(ctx context.Context, entries []models.UserPrediction) ([]ResolvedPrediction, []models.UserPrediction) {
	now := r.now()
	prices := map[string]decimal.Decimal{}
	failed := map[string]bool{}

	results := make([]ResolvedPrediction, 0, len(entries))
	var changed []models.UserPrediction

	for i := range entries {
		entry := &entries[i]
		modified := false

		if entry.FulfillmentTime.Before(now) && entry.Outcome == models.OutcomePending {
			entry.Outcome = models.OutcomeExpired
			modified = true
		}

		current, ok := r.lookupPrice(ctx, entry.Symbol, prices, failed)

		isFulfilled := false
		if ok {
			switch entry.Direction {
			case models.DirectionPositive:
				isFulfilled = current.GreaterThanOrEqual(entry.TargetPrice)
			case models.DirectionNegative:
				isFulfilled = current.LessThanOrEqual(entry.TargetPrice)
			}
		}
		if isFulfilled && entry.Outcome == models.OutcomePending {
			entry.Outcome = models.OutcomeFulfilled
			stamp := now
			entry.FulfilledAt = &stamp
			modified = true
		}

		if modified {
			changed = append(changed, *entry)
		}
		results = append(results, ResolvedPrediction{
			Symbol:          entry.Symbol,
			Slug:            entry.Slug,
			Logo:            entry.Logo,
			TargetPrice:     entry.TargetPrice,
			PriceWhenVoting: entry.PriceWhenVoting,
			Direction:       entry.Direction,
			Timeframe:       entry.Timeframe,
			Confidence:      entry.Confidence,
			IsFulfilled:     isFulfilled,
			Outcome:         entry.Outcome,
			CreatedAt:       entry.CreatedAt,
			FulfilledAt:     entry.FulfilledAt,
		})
	}
	return results, changed
}

func (r *Resolver) lookupPrice(ctx context.Context, symbol string, prices map[string]decimal.Decimal, failed map[string]bool) (decimal.Decimal, bool) {
	if p, ok := prices[symbol]; ok {
		return p, true
	}
	if failed[symbol] {
		return decimal.Zero, false
	}
	p, err := r.Prices.CurrentPrice(ctx, symbol)
	if err != nil {
		failed[symbol] = true
		if r.Logger != nil {
			r.Logger.Warn("price fetch failed during resolution",
				zap.String("symbol", symbol), zap.Error(err))
		}
		return decimal.Zero, false
	}
	prices[symbol] = p
	return p, true
}
