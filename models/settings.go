package models

import "gorm.io/gorm"

// CRM modes
const (
	CrmModeBuiltin  = "builtin"
	CrmModeExternal = "external"
)

// CustomFieldDefinition describes one user-defined CRM column.
type CustomFieldDefinition struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Type     string `json:"type"` // text, number, date, select
	Required bool   `json:"required"`
}

// CrmSettings is the singleton per-workspace CRM configuration row. It is
// created lazily on first read, never by an explicit endpoint.
type CrmSettings struct {
	gorm.Model
	WorkspaceID uint `gorm:"not null;uniqueIndex" json:"workspace_id"`

	CrmMode                string                  `gorm:"default:'builtin'" json:"crm_mode"`
	VisibleColumns         []string                `gorm:"type:jsonb;serializer:json" json:"visible_columns"`
	CustomFieldDefinitions []CustomFieldDefinition `gorm:"type:jsonb;serializer:json" json:"custom_field_definitions"`
	AutoAddOnReply         bool                    `gorm:"default:true" json:"auto_add_on_reply"`
	AutoAddOnMeeting       bool                    `gorm:"default:true" json:"auto_add_on_meeting"`
	DefaultStage           string                  `gorm:"default:'lead'" json:"default_stage"`
}

// DefaultVisibleColumns is the column set a fresh workspace starts with.
var DefaultVisibleColumns = []string{
	"name",
	"email",
	"company",
	"title",
	"stage",
	"lastContacted",
	"replyStatus",
	"meetingBooked",
	"owner",
}

// DefaultCrmSettings builds the row created on a workspace's first settings
// read.
func DefaultCrmSettings(workspaceID uint) CrmSettings {
	return CrmSettings{
		WorkspaceID:            workspaceID,
		CrmMode:                CrmModeBuiltin,
		VisibleColumns:         append([]string(nil), DefaultVisibleColumns...),
		CustomFieldDefinitions: []CustomFieldDefinition{},
		AutoAddOnReply:         true,
		AutoAddOnMeeting:       true,
		DefaultStage:           "lead",
	}
}
