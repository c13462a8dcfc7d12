package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidSequenceStatus(t *testing.T) {
	for _, s := range []string{"pending_review", "approved", "active", "paused", "completed", "archived"} {
		assert.True(t, ValidSequenceStatus(s), s)
	}
	for _, s := range []string{"", "Approved", "deleted", "draft"} {
		assert.False(t, ValidSequenceStatus(s), s)
	}
}

func TestSequenceUpdatableFieldsExcludeIdentity(t *testing.T) {
	// The PATCH allow-list must never expose identity or ownership columns
	for _, key := range []string{"id", "workspace_id", "created_at", "updated_at", "deleted_at"} {
		_, ok := SequenceUpdatableFields[key]
		assert.False(t, ok, key)
	}

	// Every step's subject and body is editable
	for _, key := range []string{"subject_1", "body_1", "subject_5", "body_5", "angle_3", "status", "name"} {
		_, ok := SequenceUpdatableFields[key]
		assert.True(t, ok, key)
	}
}

func TestValidEventType(t *testing.T) {
	for _, e := range []string{"sent", "delivered", "opened", "clicked", "bounced", "complained", "unsubscribed", "replied"} {
		assert.True(t, ValidEventType(e), e)
	}
	for _, e := range []string{"", "forwarded", "OPENED"} {
		assert.False(t, ValidEventType(e), e)
	}
}
