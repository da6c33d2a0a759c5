package models

import (
	"time"

	"gorm.io/datatypes"
)

// SummarySnapshot caches the latest AI verdict per coin and timeframe. It is
// written best-effort after each stats computation; reads never depend on it.
type SummarySnapshot struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	Slug      string `gorm:"type:text;not null;uniqueIndex:idx_summary_slug_tf,priority:1"`
	Timeframe string `gorm:"type:varchar(2);not null;uniqueIndex:idx_summary_slug_tf,priority:2"`

	Total    int `gorm:"not null"`
	Positive int `gorm:"not null"`
	Negative int `gorm:"not null"`

	Verdict             string         `gorm:"type:text"`
	Summary             string         `gorm:"type:text"`
	MostCommonDirection string         `gorm:"type:varchar(16)"`
	NotableReasons      datatypes.JSON `gorm:"type:jsonb"`
	RawResponse         datatypes.JSON `gorm:"type:jsonb"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (SummarySnapshot) TableName() string {
	return "summary_snapshots"
}
