package models

import (
	"time"

	"gorm.io/gorm"
)

// Workspace is the tenant boundary. Every domain row hangs off a workspace
// and every request is scoped to exactly one.
type Workspace struct {
	gorm.Model
	Name     string `gorm:"not null" json:"name"`
	Slug     string `gorm:"uniqueIndex" json:"slug"`
	PlanName string `gorm:"default:'free'" json:"plan_name"`
	IsActive bool   `gorm:"default:true" json:"is_active"`

	// API key auth: the prefix narrows the lookup, the secret is only ever
	// stored hashed
	APIKeyHash   string `gorm:"not null" json:"-"`
	APIKeyPrefix string `gorm:"index" json:"-"`

	LastSeenAt *time.Time `json:"last_seen_at"`

	// Bumped to invalidate outstanding JWTs
	TokenVersion int `gorm:"default:1" json:"-"`
}
