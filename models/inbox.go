package models

import (
	"time"

	"gorm.io/gorm"
)

// Message directions
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// InboxMessage is an append-only record of a message seen on a configured
// mailbox. Rows are never mutated by this service.
type InboxMessage struct {
	gorm.Model
	WorkspaceID uint `gorm:"not null;index" json:"workspace_id"`

	MessageID  string    `gorm:"index" json:"message_id"`
	FromEmail  string    `gorm:"not null;index" json:"from_email"`
	ToEmail    string    `json:"to_email"`
	Subject    string    `json:"subject"`
	Snippet    string    `gorm:"type:text" json:"snippet"`
	Direction  string    `gorm:"not null;index" json:"direction"` // inbound, outbound
	ReceivedAt time.Time `gorm:"not null;index" json:"received_at"`
}
