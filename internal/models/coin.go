package models

import (
	"time"
)

// Coin is the per-slug prediction aggregate. It is created lazily on the
// first vote for a slug and is never deleted wholesale; only facet entries
// shrink when users retract predictions.
type Coin struct {
	ID      uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	Heading string `gorm:"type:text;not null" json:"heading"`
	Slug    string `gorm:"type:text;uniqueIndex;not null" json:"slug"`
	Symbol  string `gorm:"type:varchar(20);not null;index" json:"symbol"`
	Logo    string `gorm:"type:text" json:"logo"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime" json:"updatedAt"`
}

func (Coin) TableName() string {
	return "coins"
}

// Timeframe tokens accepted across the system: "24" (24 hours), "7" (7 days),
// "1" (1 month).
const (
	Timeframe24Hours = "24"
	Timeframe7Days   = "7"
	Timeframe1Month  = "1"
)

func ValidTimeframe(tf string) bool {
	switch tf {
	case Timeframe24Hours, Timeframe7Days, Timeframe1Month:
		return true
	}
	return false
}

const (
	DirectionPositive = "positive"
	DirectionNegative = "negative"
)
