package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"coinpulse/internal/models"
	"coinpulse/internal/repository"
)

// SubmissionService records validated predictions: six facet appends on the
// coin aggregate plus one ledger entry, in a single transaction so the dual
// write is atomic from the caller's perspective.
type SubmissionService struct {
	Repo      repository.Repository
	Validator *Validator
	Logger    *zap.Logger
	Now       func() time.Time
}

func (s *SubmissionService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// Submit validates and persists one prediction, returning the updated coin
// aggregate document.
func (s *SubmissionService) Submit(ctx context.Context, userID string, in SubmissionInput) (*models.CoinDocument, error) {
	existing, err := s.Repo.ListUserPredictions(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.Validator.Validate(ctx, existing, in); err != nil {
		return nil, err
	}

	p := in.Prediction
	priceWhenVoting := "0.00"
	if p.CurrentPrice.Sign() > 0 {
		priceWhenVoting = p.CurrentPrice.StringFixed(2)
	}

	coin := &models.Coin{
		Heading: in.Heading,
		Slug:    in.Slug,
		Symbol:  in.Symbol,
		Logo:    "",
	}
	err = s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		if err := s.Repo.EnsureCoinTx(ctx, tx, coin); err != nil {
			return err
		}
		if err := s.Repo.AppendDirectionTx(ctx, tx, &models.DirectionEntry{
			CoinID:        coin.ID,
			Timeframe:     p.Timeframe,
			Value:         p.Direction,
			ContributorID: userID,
		}); err != nil {
			return err
		}
		if err := s.Repo.AppendTextTx(ctx, tx, &models.TextEntry{
			CoinID:        coin.ID,
			Timeframe:     p.Timeframe,
			Content:       p.Text,
			ContributorID: userID,
		}); err != nil {
			return err
		}
		if err := s.Repo.AppendConfidenceTx(ctx, tx, &models.ConfidenceEntry{
			CoinID:        coin.ID,
			Timeframe:     p.Timeframe,
			Value:         p.Confidence,
			ContributorID: userID,
		}); err != nil {
			return err
		}
		if err := s.Repo.AppendTargetPriceTx(ctx, tx, &models.TargetPriceEntry{
			CoinID:        coin.ID,
			Timeframe:     p.Timeframe,
			Value:         p.TargetPrice,
			ContributorID: userID,
		}); err != nil {
			return err
		}
		contributor := userID
		if err := s.Repo.AppendFulfillmentTimeTx(ctx, tx, &models.FulfillmentTimeEntry{
			CoinID:        coin.ID,
			Timeframe:     p.Timeframe,
			Date:          p.FulfillmentTime,
			ContributorID: &contributor,
		}); err != nil {
			return err
		}
		// The fulfilled log historically carries no contributor.
		if err := s.Repo.AppendFulfilledTx(ctx, tx, &models.FulfilledEntry{
			CoinID:    coin.ID,
			Timeframe: p.Timeframe,
			Status:    false,
		}); err != nil {
			return err
		}
		return s.Repo.InsertUserPredictionTx(ctx, tx, &models.UserPrediction{
			UserID:          userID,
			CoinID:          coin.ID,
			Slug:            in.Slug,
			Symbol:          in.Symbol,
			Logo:            coin.Logo,
			TargetPrice:     p.TargetPrice,
			PriceWhenVoting: priceWhenVoting,
			Direction:       p.Direction,
			Timeframe:       p.Timeframe,
			Confidence:      p.Confidence,
			FulfillmentTime: p.FulfillmentTime,
			Outcome:         models.OutcomePending,
			CreatedAt:       s.now(),
		})
	})
	if err != nil {
		return nil, err
	}

	facets, err := s.Repo.ListFacets(ctx, coin.ID, "")
	if err != nil {
		return nil, err
	}
	doc := &models.CoinDocument{Coin: *coin}
	if facets != nil {
		doc.Prediction = *facets
	}
	return doc, nil
}

// Delete retracts the caller's prediction for a slug and timeframe. The
// direction log is stripped for this contributor only; the other five facet
// logs carry no usable ownership scope and are stripped for the whole
// timeframe, which also drops other contributors' entries. That coarse scope
// is long-standing behavior that clients rely on being consistent.
func (s *SubmissionService) Delete(ctx context.Context, userID, slug, timeframe string) error {
	coin, err := s.Repo.GetCoinBySlug(ctx, slug)
	if err != nil {
		return err
	}
	if coin == nil {
		return ErrCoinNotFound
	}
	return s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		if err := s.Repo.DeleteDirectionsTx(ctx, tx, coin.ID, timeframe, userID); err != nil {
			return err
		}
		if err := s.Repo.DeleteFacetsByTimeframeTx(ctx, tx, coin.ID, timeframe); err != nil {
			return err
		}
		return s.Repo.DeleteUserPredictionTx(ctx, tx, userID, slug, timeframe)
	})
}

// ListAll returns every coin aggregate with its full facet logs, unfiltered.
func (s *SubmissionService) ListAll(ctx context.Context) ([]models.CoinDocument, error) {
	coins, err := s.Repo.ListCoins(ctx)
	if err != nil {
		return nil, err
	}
	docs := make([]models.CoinDocument, 0, len(coins))
	for _, coin := range coins {
		facets, err := s.Repo.ListFacets(ctx, coin.ID, "")
		if err != nil {
			return nil, err
		}
		doc := models.CoinDocument{Coin: coin}
		if facets != nil {
			doc.Prediction = *facets
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
