// Package domain defines the core persistence models for the application.
// These types are used by GORM for database schema mapping and are shared
// across the repository and service layers.
package domain

import "time"

// Idempotency records a previously processed reload trigger, keyed by
// (provider_name, key). It lets administrative clients retry POST reload
// requests safely: a replayed key returns the original reload outcome
// without starting another cycle.
type Idempotency struct {
	ID           string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	ProviderName string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_provider_key,priority:1"`
	Key          string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_provider_key,priority:2"`
	Status       int       `gorm:"type:INTEGER NOT NULL"`
	CreatedAt    time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt    time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
