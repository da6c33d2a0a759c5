package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	OutcomePending   = "pending"
	OutcomeFulfilled = "fulfilled"
	OutcomeFailed    = "failed"
	OutcomeExpired   = "expired"
)

// UserPrediction is the per-user denormalized ledger entry, written in
// lockstep with the facet logs at submission time and mutated only by the
// fulfillment resolver afterwards.
type UserPrediction struct {
	ID     uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID string `gorm:"type:varchar(64);not null;index:idx_user_predictions_user" json:"-"`
	CoinID uint64 `gorm:"not null;index" json:"predictionRef"`

	Slug            string          `gorm:"type:text;not null" json:"slug"`
	Symbol          string          `gorm:"type:varchar(20);not null" json:"symbol"`
	Logo            string          `gorm:"type:text" json:"logo"`
	TargetPrice     decimal.Decimal `gorm:"type:numeric(30,10);not null" json:"targetPrice"`
	PriceWhenVoting string          `gorm:"type:varchar(32);not null;default:'0.00'" json:"priceWhenVoting"`
	Direction       string          `gorm:"type:varchar(8);not null" json:"direction"`
	Timeframe       string          `gorm:"type:varchar(2);not null" json:"timeframe"`
	Confidence      string          `gorm:"type:varchar(20)" json:"confidence"`
	FulfillmentTime time.Time       `gorm:"type:timestamptz;not null" json:"fulfillmentTime"`

	Outcome     string     `gorm:"type:varchar(10);not null;default:'pending';index" json:"outcome"`
	FulfilledAt *time.Time `gorm:"type:timestamptz" json:"fulfilledAt"`
	CreatedAt   time.Time  `gorm:"type:timestamptz;autoCreateTime" json:"createdAt"`
}

func (UserPrediction) TableName() string {
	return "user_predictions"
}
