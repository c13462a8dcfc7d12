package models

import (
	"time"

	"gorm.io/gorm"
)

// Email event types. The events table only ever stores these values; the
// boundary validates before insert.
const (
	EventSent         = "sent"
	EventDelivered    = "delivered"
	EventOpened       = "opened"
	EventClicked      = "clicked"
	EventBounced      = "bounced"
	EventComplained   = "complained"
	EventUnsubscribed = "unsubscribed"
	EventReplied      = "replied"
)

var eventTypes = map[string]bool{
	EventSent:         true,
	EventDelivered:    true,
	EventOpened:       true,
	EventClicked:      true,
	EventBounced:      true,
	EventComplained:   true,
	EventUnsubscribed: true,
	EventReplied:      true,
}

// ValidEventType reports whether t is one of the known event types.
func ValidEventType(t string) bool {
	return eventTypes[t]
}

// Touchpoint is a recorded outbound contact (one email sent to one lead).
// Tracking events attach to it through the opaque tracking token embedded in
// the outbound content. OpenCount and ClickCount are derived aggregates kept
// in step with the event log by incrementing them in the same transaction as
// the event insert.
type Touchpoint struct {
	gorm.Model
	WorkspaceID     uint `gorm:"not null;index" json:"workspace_id"`
	SendingDomainID uint `gorm:"index" json:"sending_domain_id"`
	SequenceID      uint `gorm:"index" json:"sequence_id"`

	TrackingToken string `gorm:"not null;uniqueIndex" json:"tracking_token"`
	Recipient     string `gorm:"not null" json:"recipient"`
	Subject       string `json:"subject"`
	StepNumber    int    `gorm:"default:1" json:"step_number"`

	OpenCount  int        `gorm:"default:0" json:"open_count"`
	ClickCount int        `gorm:"default:0" json:"click_count"`
	SentAt     *time.Time `json:"sent_at"`

	Events []EmailEvent `gorm:"foreignKey:TouchpointID" json:"events,omitempty"`
}

// EmailEvent is one append-only engagement event against a touchpoint.
type EmailEvent struct {
	gorm.Model
	TouchpointID uint `gorm:"not null;index" json:"touchpoint_id"`

	EventType  string    `gorm:"not null;index" json:"event_type"`
	OccurredAt time.Time `gorm:"not null" json:"occurred_at"`

	ClickedURL   string `json:"clicked_url,omitempty"`
	BounceType   string `json:"bounce_type,omitempty"` // hard, soft, block
	BounceReason string `json:"bounce_reason,omitempty"`

	UserAgent string `json:"user_agent,omitempty"`
	IPAddress string `json:"ip_address,omitempty"`
	Geo       string `json:"geo,omitempty"`
}
