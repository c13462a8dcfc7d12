package models

import "gorm.io/gorm"

// Sequence statuses. Transitions are driven by the API, not enforced as a
// state machine.
const (
	SequenceStatusPendingReview = "pending_review"
	SequenceStatusApproved      = "approved"
	SequenceStatusActive        = "active"
	SequenceStatusPaused        = "paused"
	SequenceStatusCompleted     = "completed"
	SequenceStatusArchived      = "archived"
)

var sequenceStatuses = map[string]bool{
	SequenceStatusPendingReview: true,
	SequenceStatusApproved:      true,
	SequenceStatusActive:        true,
	SequenceStatusPaused:        true,
	SequenceStatusCompleted:     true,
	SequenceStatusArchived:      true,
}

// ValidSequenceStatus reports whether s is one of the known statuses.
func ValidSequenceStatus(s string) bool {
	return sequenceStatuses[s]
}

// EmailSequence represents a multi-step outreach campaign template with up to
// five ordered email steps.
type EmailSequence struct {
	gorm.Model
	WorkspaceID uint `gorm:"not null;index" json:"workspace_id"`

	Name          string `gorm:"not null" json:"name"`
	Description   string `json:"description"`
	TargetPersona string `json:"target_persona"`

	Subject1 string `json:"subject_1"`
	Body1    string `gorm:"type:text" json:"body_1"`
	Subject2 string `json:"subject_2"`
	Body2    string `gorm:"type:text" json:"body_2"`
	Subject3 string `json:"subject_3"`
	Body3    string `gorm:"type:text" json:"body_3"`
	Subject4 string `json:"subject_4"`
	Body4    string `gorm:"type:text" json:"body_4"`
	Subject5 string `json:"subject_5"`
	Body5    string `gorm:"type:text" json:"body_5"`

	Approved1 bool `gorm:"default:false" json:"approved_1"`
	Approved2 bool `gorm:"default:false" json:"approved_2"`
	Approved3 bool `gorm:"default:false" json:"approved_3"`
	Approved4 bool `gorm:"default:false" json:"approved_4"`
	Approved5 bool `gorm:"default:false" json:"approved_5"`

	// Targeting angles the copy was written against
	Angle1 string `json:"angle_1"`
	Angle2 string `json:"angle_2"`
	Angle3 string `json:"angle_3"`

	Status string `gorm:"default:'pending_review';index" json:"status"`
}

// SequenceUpdatableFields maps JSON payload keys accepted by the sequence
// PATCH endpoint to their column names. Anything else is dropped before the
// update is built.
var SequenceUpdatableFields = map[string]string{
	"name":           "name",
	"description":    "description",
	"target_persona": "target_persona",
	"subject_1":      "subject1",
	"body_1":         "body1",
	"subject_2":      "subject2",
	"body_2":         "body2",
	"subject_3":      "subject3",
	"body_3":         "body3",
	"subject_4":      "subject4",
	"body_4":         "body4",
	"subject_5":      "subject5",
	"body_5":         "body5",
	"angle_1":        "angle1",
	"angle_2":        "angle2",
	"angle_3":        "angle3",
	"status":         "status",
}
