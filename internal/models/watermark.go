package models

import (
	"time"

	"github.com/uptrace/bun"
)

// ETLWatermark records the last raw loaded_at staged for a source table.
type ETLWatermark struct {
	bun.BaseModel `bun:"table:etl_watermark,alias:wm"`

	TableName       string    `bun:"table_name,pk" json:"table_name"`
	LastProcessedAt time.Time `bun:"last_processed_at,notnull" json:"last_processed_at"`
	UpdatedAt       time.Time `bun:"updated_at,notnull" json:"updated_at"`
}

// ETLLock is a lease serialising stager runs per source table.
type ETLLock struct {
	bun.BaseModel `bun:"table:etl_lock,alias:lk"`

	TableName  string    `bun:"table_name,pk" json:"table_name"`
	Owner      string    `bun:"owner,notnull" json:"owner"`
	AcquiredAt time.Time `bun:"acquired_at,notnull" json:"acquired_at"`
	ExpiresAt  time.Time `bun:"expires_at,notnull" json:"expires_at"`
}

// Expired reports whether the lease can be taken over at now.
func (l *ETLLock) Expired(now time.Time) bool {
	return !l.ExpiresAt.After(now)
}
