package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"coinpulse/internal/ai"
	"coinpulse/internal/models"
)

// PriceGateway supplies the current USDT spot price for a bare asset symbol.
type PriceGateway interface {
	CurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// CoherenceChecker decides whether a reasoning text supports a direction.
type CoherenceChecker interface {
	CoherenceCheck(ctx context.Context, direction, text string) (ai.CoherenceResult, error)
}

// PredictionInput is the validated request body of a submission.
type PredictionInput struct {
	Direction       string          `json:"direction"`
	Text            string          `json:"text"`
	TargetPrice     decimal.Decimal `json:"targetPrice"`
	Confidence      string          `json:"confidence"`
	Timeframe       string          `json:"timeframe"`
	FulfillmentTime time.Time       `json:"fulfillmentTime"`
	CurrentPrice    decimal.Decimal `json:"currentPrice"`
}

type SubmissionInput struct {
	Heading    string          `json:"heading"`
	Slug       string          `json:"slug"`
	Symbol     string          `json:"symbol"`
	Prediction PredictionInput `json:"prediction"`
}

// Minimum deviation between target and current price, percent of current.
var deviationThresholds = map[string]decimal.Decimal{
	"BTC":  decimal.NewFromFloat(1.5),
	"ETH":  decimal.NewFromFloat(1.5),
	"DOGE": decimal.NewFromFloat(2.5),
	"SHIB": decimal.NewFromFloat(3),
}

var defaultDeviationThreshold = decimal.NewFromInt(2)

// DeviationThreshold returns the per-symbol minimum deviation percentage.
func DeviationThreshold(symbol string) decimal.Decimal {
	if t, ok := deviationThresholds[strings.ToUpper(strings.TrimSpace(symbol))]; ok {
		return t
	}
	return defaultDeviationThreshold
}

func timeframeLabel(tf string) string {
	switch tf {
	case models.Timeframe24Hours:
		return "24 Hours"
	case models.Timeframe7Days:
		return "7 Days"
	case models.Timeframe1Month:
		return "1 Month"
	}
	return tf + " Hours"
}

// Validator runs the admissibility checks on a candidate prediction, in
// order, short-circuiting on the first failure. It performs no writes.
type Validator struct {
	Prices    PriceGateway
	Coherence CoherenceChecker
	Logger    *zap.Logger
	Now       func() time.Time
}

func (v *Validator) now() time.Time {
	if v.Now != nil {
		return v.Now()
	}
	return time.Now().UTC()
}

// Validate checks the submission against the user's existing ledger entries
// and live market data. A nil return means the prediction is admissible.
func (v *Validator) Validate(ctx context.Context, existing []models.UserPrediction, in SubmissionInput) error {
	p := in.Prediction

	// 1. One prediction per coin and timeframe per user, regardless of the
	// prior entry's outcome.
	for _, entry := range existing {
		if entry.Slug == in.Slug && entry.Timeframe == p.Timeframe {
			return validationErr(CodeDuplicateActivePrediction, fmt.Sprintf(
				"you have already made a prediction for this coin in the selected timeframe (%s); wait for it to be fulfilled before submitting a new one",
				timeframeLabel(p.Timeframe)))
		}
	}

	// 2. Reasoning must support the chosen direction. Fail closed: a model
	// error counts as incoherent, only quota exhaustion is retryable.
	coherence, err := v.Coherence.CoherenceCheck(ctx, p.Direction, p.Text)
	if err != nil {
		if v.Logger != nil {
			v.Logger.Warn("coherence check failed", zap.Error(err))
		}
		return validationErr(CodeIncoherentReasoning,
			"your explanation doesn't align with the chosen direction (up or down); please adjust your reasoning")
	}
	if coherence.QuotaExceeded {
		return ErrValidationUnavailable
	}
	if !coherence.Match {
		return validationErr(CodeIncoherentReasoning,
			"your explanation doesn't align with the chosen direction (up or down); please adjust your reasoning")
	}

	// 3. Target must sit on the correct side of the live price.
	currentPrice, err := v.Prices.CurrentPrice(ctx, in.Symbol)
	if err != nil {
		if v.Logger != nil {
			v.Logger.Warn("price fetch failed during validation",
				zap.String("symbol", in.Symbol), zap.Error(err))
		}
		return ErrMarketUnavailable
	}
	directionOK := (p.Direction == models.DirectionPositive && p.TargetPrice.GreaterThan(currentPrice)) ||
		(p.Direction == models.DirectionNegative && p.TargetPrice.LessThan(currentPrice))
	if !directionOK {
		side := "lower"
		if p.Direction == models.DirectionPositive {
			side = "higher"
		}
		return validationErr(CodeDirectionPriceMismatch, fmt.Sprintf(
			"the target price must be %s than the current market price ($%s) to match the direction of your prediction",
			side, currentPrice.String()))
	}

	// 4. |target - current| / current * 100 >= per-symbol threshold.
	threshold := DeviationThreshold(in.Symbol)
	deviation := p.TargetPrice.Sub(currentPrice).Abs().
		Div(currentPrice).
		Mul(decimal.NewFromInt(100))
	if deviation.LessThan(threshold) {
		return validationErr(CodeInsufficientDeviation, fmt.Sprintf(
			"your prediction must differ by at least %s%% from the current market price ($%s); try setting a more ambitious target",
			threshold.String(), currentPrice.String()))
	}

	// 5. Deadline strictly in the future.
	if !p.FulfillmentTime.After(v.now()) {
		return validationErr(CodeFulfillmentInPast,
			"the fulfillment time must be set in the future; please select a valid time ahead of the current moment")
	}

	return nil
}
