package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// The six facet tables below hold the per-coin prediction logs. One
// submission appends one row to each table, but the rows carry no shared
// submission id: the facets are parallel, index-correlated only by insertion
// order. Filtering and deletion therefore operate per facet, which is the
// behavior the aggregation and deletion paths depend on.

// DirectionEntry records an up/down call for a coin and timeframe.
type DirectionEntry struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	CoinID        uint64    `gorm:"not null;index:idx_directions_coin_tf,priority:1" json:"-"`
	Timeframe     string    `gorm:"type:varchar(2);not null;index:idx_directions_coin_tf,priority:2" json:"timeframe"`
	Value         string    `gorm:"type:varchar(8);not null" json:"value"`
	ContributorID string    `gorm:"type:varchar(64);not null;index" json:"predictedBy"`
	CreatedAt     time.Time `gorm:"type:timestamptz;autoCreateTime" json:"createdAt"`
}

func (DirectionEntry) TableName() string { return "prediction_directions" }

// TextEntry records the free-form reasoning behind a prediction.
type TextEntry struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	CoinID        uint64    `gorm:"not null;index:idx_texts_coin_tf,priority:1" json:"-"`
	Timeframe     string    `gorm:"type:varchar(2);not null;index:idx_texts_coin_tf,priority:2" json:"timeframe"`
	Content       string    `gorm:"type:text;not null" json:"content"`
	ContributorID string    `gorm:"type:varchar(64);not null" json:"predictedBy"`
	CreatedAt     time.Time `gorm:"type:timestamptz;autoCreateTime" json:"createdAt"`
}

func (TextEntry) TableName() string { return "prediction_texts" }

type ConfidenceEntry struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	CoinID        uint64    `gorm:"not null;index:idx_confidence_coin_tf,priority:1" json:"-"`
	Timeframe     string    `gorm:"type:varchar(2);not null;index:idx_confidence_coin_tf,priority:2" json:"timeframe"`
	Value         string    `gorm:"type:varchar(20);not null" json:"value"`
	ContributorID string    `gorm:"type:varchar(64);not null" json:"predictedBy"`
	CreatedAt     time.Time `gorm:"type:timestamptz;autoCreateTime" json:"createdAt"`
}

func (ConfidenceEntry) TableName() string { return "prediction_confidence" }

type TargetPriceEntry struct {
	ID            uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	CoinID        uint64          `gorm:"not null;index:idx_target_prices_coin_tf,priority:1" json:"-"`
	Timeframe     string          `gorm:"type:varchar(2);not null;index:idx_target_prices_coin_tf,priority:2" json:"timeframe"`
	Value         decimal.Decimal `gorm:"type:numeric(30,10);not null" json:"value"`
	ContributorID string          `gorm:"type:varchar(64);not null" json:"predictedBy"`
	CreatedAt     time.Time       `gorm:"type:timestamptz;autoCreateTime" json:"createdAt"`
}

func (TargetPriceEntry) TableName() string { return "prediction_target_prices" }

// FulfillmentTimeEntry carries the deadline the contributor chose. The
// contributor column is nullable to match the historical log shape.
type FulfillmentTimeEntry struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	CoinID        uint64    `gorm:"not null;index:idx_fulfillment_times_coin_tf,priority:1" json:"-"`
	Timeframe     string    `gorm:"type:varchar(2);not null;index:idx_fulfillment_times_coin_tf,priority:2" json:"timeframe"`
	Date          time.Time `gorm:"type:timestamptz;not null" json:"date"`
	ContributorID *string   `gorm:"type:varchar(64)" json:"predictedBy,omitempty"`
	CreatedAt     time.Time `gorm:"type:timestamptz;autoCreateTime" json:"createdAt"`
}

func (FulfillmentTimeEntry) TableName() string { return "prediction_fulfillment_times" }

type FulfilledEntry struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	CoinID        uint64    `gorm:"not null;index:idx_fulfilled_coin_tf,priority:1" json:"-"`
	Timeframe     string    `gorm:"type:varchar(2);not null;index:idx_fulfilled_coin_tf,priority:2" json:"timeframe"`
	Status        bool      `gorm:"not null;default:false" json:"status"`
	ContributorID *string   `gorm:"type:varchar(64)" json:"predictedBy,omitempty"`
	CreatedAt     time.Time `gorm:"type:timestamptz;autoCreateTime" json:"createdAt"`
}

func (FulfilledEntry) TableName() string { return "prediction_fulfilled" }

// PredictionFacets bundles the timeframe-scoped view of all six logs for one
// coin. The slices are filtered independently; same index does not imply same
// submission.
type PredictionFacets struct {
	Directions       []DirectionEntry       `json:"directions"`
	Texts            []TextEntry            `json:"texts"`
	Confidence       []ConfidenceEntry      `json:"confidence"`
	TargetPrices     []TargetPriceEntry     `json:"targetPrices"`
	FulfillmentTimes []FulfillmentTimeEntry `json:"fulfillmentTimes"`
	Fulfilled        []FulfilledEntry       `json:"fulfilled"`
}

// CoinDocument is the aggregate document returned by the submission and
// listing endpoints: the coin row plus its full facet logs.
type CoinDocument struct {
	Coin
	Prediction PredictionFacets `json:"prediction"`
}
