package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"coinpulse/internal/ai"
	"coinpulse/internal/models"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func validInput() SubmissionInput {
	return SubmissionInput{
		Heading: "Bitcoin",
		Slug:    "bitcoin",
		Symbol:  "BTC",
		Prediction: PredictionInput{
			Direction:       models.DirectionPositive,
			Text:            "strong ETF inflows and halving supply squeeze",
			TargetPrice:     decimal.NewFromInt(110),
			Confidence:      "high",
			Timeframe:       models.Timeframe24Hours,
			FulfillmentTime: testNow.Add(24 * time.Hour),
			CurrentPrice:    decimal.NewFromInt(100),
		},
	}
}

func newValidator(price decimal.Decimal) *Validator {
	return &Validator{
		Prices:    &stubPrices{prices: map[string]decimal.Decimal{"BTC": price}},
		Coherence: &stubCoherence{result: ai.CoherenceResult{Match: true}},
		Now:       func() time.Time { return testNow },
	}
}

func validationCode(t *testing.T, err error) string {
	t.Helper()
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("err=%v, want *ValidationError", err)
	}
	return vErr.Code
}

func TestValidate_Admissible(t *testing.T) {
	v := newValidator(decimal.NewFromInt(100))
	if err := v.Validate(context.Background(), nil, validInput()); err != nil {
		t.Fatalf("err=%v", err)
	}
}

func TestValidate_DuplicateRegardlessOfOutcome(t *testing.T) {
	v := newValidator(decimal.NewFromInt(100))
	for _, outcome := range []string{models.OutcomePending, models.OutcomeFulfilled, models.OutcomeExpired} {
		existing := []models.UserPrediction{{
			Slug:      "bitcoin",
			Timeframe: models.Timeframe24Hours,
			Outcome:   outcome,
		}}
		err := v.Validate(context.Background(), existing, validInput())
		if code := validationCode(t, err); code != CodeDuplicateActivePrediction {
			t.Fatalf("outcome=%s code=%s want %s", outcome, code, CodeDuplicateActivePrediction)
		}
	}
}

func TestValidate_DuplicateOtherTimeframeAllowed(t *testing.T) {
	v := newValidator(decimal.NewFromInt(100))
	existing := []models.UserPrediction{{
		Slug:      "bitcoin",
		Timeframe: models.Timeframe7Days,
		Outcome:   models.OutcomePending,
	}}
	if err := v.Validate(context.Background(), existing, validInput()); err != nil {
		t.Fatalf("err=%v", err)
	}
}

func TestValidate_IncoherentReasoning(t *testing.T) {
	v := newValidator(decimal.NewFromInt(100))
	v.Coherence = &stubCoherence{result: ai.CoherenceResult{Match: false}}
	err := v.Validate(context.Background(), nil, validInput())
	if code := validationCode(t, err); code != CodeIncoherentReasoning {
		t.Fatalf("code=%s want %s", code, CodeIncoherentReasoning)
	}
}

func TestValidate_CoherenceErrorFailsClosed(t *testing.T) {
	v := newValidator(decimal.NewFromInt(100))
	v.Coherence = &stubCoherence{err: errors.New("model unreachable")}
	err := v.Validate(context.Background(), nil, validInput())
	if code := validationCode(t, err); code != CodeIncoherentReasoning {
		t.Fatalf("code=%s want %s", code, CodeIncoherentReasoning)
	}
}

func TestValidate_QuotaExceededRetryable(t *testing.T) {
	v := newValidator(decimal.NewFromInt(100))
	v.Coherence = &stubCoherence{result: ai.CoherenceResult{QuotaExceeded: true}}
	err := v.Validate(context.Background(), nil, validInput())
	if !errors.Is(err, ErrValidationUnavailable) {
		t.Fatalf("err=%v want ErrValidationUnavailable", err)
	}
}

func TestValidate_PriceFetchFailure(t *testing.T) {
	v := newValidator(decimal.NewFromInt(100))
	v.Prices = &stubPrices{err: errors.New("binance down")}
	err := v.Validate(context.Background(), nil, validInput())
	if !errors.Is(err, ErrMarketUnavailable) {
		t.Fatalf("err=%v want ErrMarketUnavailable", err)
	}
}

func TestValidate_DirectionPriceMismatch(t *testing.T) {
	v := newValidator(decimal.NewFromInt(100))

	in := validInput()
	in.Prediction.TargetPrice = decimal.NewFromInt(90) // positive call below market
	err := v.Validate(context.Background(), nil, in)
	if code := validationCode(t, err); code != CodeDirectionPriceMismatch {
		t.Fatalf("code=%s want %s", code, CodeDirectionPriceMismatch)
	}

	in = validInput()
	in.Prediction.Direction = models.DirectionNegative
	in.Prediction.Text = "regulatory pressure will drag the price down"
	in.Prediction.TargetPrice = decimal.NewFromInt(110)
	err = v.Validate(context.Background(), nil, in)
	if code := validationCode(t, err); code != CodeDirectionPriceMismatch {
		t.Fatalf("code=%s want %s", code, CodeDirectionPriceMismatch)
	}
}

func TestValidate_TargetEqualToMarketRejected(t *testing.T) {
	v := newValidator(decimal.NewFromInt(100))
	in := validInput()
	in.Prediction.TargetPrice = decimal.NewFromInt(100)
	err := v.Validate(context.Background(), nil, in)
	if code := validationCode(t, err); code != CodeDirectionPriceMismatch {
		t.Fatalf("code=%s want %s", code, CodeDirectionPriceMismatch)
	}
}

func TestValidate_DeviationThresholds(t *testing.T) {
	cases := []struct {
		symbol string
		target float64
		ok     bool
	}{
		{"BTC", 100.5, false}, // 0.5% < 1.5%
		{"BTC", 101.5, true},  // exactly 1.5%
		{"BTC", 102, true},
		{"XRP", 101, false}, // default 2%
		{"XRP", 102, true},
		{"DOGE", 102, false}, // 2.5%
		{"DOGE", 102.5, true},
		{"SHIB", 102.5, false}, // 3%
		{"SHIB", 103, true},
	}
	for _, tc := range cases {
		v := &Validator{
			Prices: &stubPrices{prices: map[string]decimal.Decimal{
				tc.symbol: decimal.NewFromInt(100),
			}},
			Coherence: &stubCoherence{result: ai.CoherenceResult{Match: true}},
			Now:       func() time.Time { return testNow },
		}
		in := validInput()
		in.Symbol = tc.symbol
		in.Prediction.TargetPrice = decimal.NewFromFloat(tc.target)
		err := v.Validate(context.Background(), nil, in)
		if tc.ok && err != nil {
			t.Fatalf("%s target=%v err=%v want nil", tc.symbol, tc.target, err)
		}
		if !tc.ok {
			if code := validationCode(t, err); code != CodeInsufficientDeviation {
				t.Fatalf("%s target=%v code=%s want %s", tc.symbol, tc.target, code, CodeInsufficientDeviation)
			}
		}
	}
}

func TestValidate_FulfillmentTimeInPast(t *testing.T) {
	v := newValidator(decimal.NewFromInt(100))
	in := validInput()
	in.Prediction.FulfillmentTime = testNow.Add(-time.Hour)
	err := v.Validate(context.Background(), nil, in)
	if code := validationCode(t, err); code != CodeFulfillmentInPast {
		t.Fatalf("code=%s want %s", code, CodeFulfillmentInPast)
	}

	in.Prediction.FulfillmentTime = testNow // not strictly in the future
	err = v.Validate(context.Background(), nil, in)
	if code := validationCode(t, err); code != CodeFulfillmentInPast {
		t.Fatalf("code=%s want %s", code, CodeFulfillmentInPast)
	}
}

func TestDeviationThreshold_CaseInsensitive(t *testing.T) {
	if got := DeviationThreshold(" btc "); !got.Equal(decimal.NewFromFloat(1.5)) {
		t.Fatalf("got=%s want 1.5", got)
	}
	if got := DeviationThreshold("unknown"); !got.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("got=%s want 2", got)
	}
}
