// Package domain defines the persisted data model for the application.
// This file holds the one relational table: idempotency records, mapped with
// GORM and stored in SQLite.
package domain

import "time"

// Idempotency records the outcome of a previously processed chat request,
// keyed by (user_id, key). It enables safe retries for POST /chat by
// returning the originally produced reply without re-invoking the external
// model or appending duplicate turns.
type Idempotency struct {
	ID        string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	UserID    string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_key,priority:1"`
	Key       string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_key,priority:2"`
	Reply     string    `gorm:"type:TEXT NOT NULL"`
	Status    int       `gorm:"type:INTEGER NOT NULL"`
	CreatedAt time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
