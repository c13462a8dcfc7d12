package controller

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"outreachly/models"
)

type SettingsController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewSettingsController(db *gorm.DB, logger *log.Logger) *SettingsController {
	return &SettingsController{
		DB:     db,
		Logger: logger,
	}
}

// GetSettings returns the workspace's CRM settings, creating the default row
// on first read. The insert goes through ON CONFLICT DO NOTHING against the
// workspace_id unique index, so concurrent first reads cannot create two
// rows: one insert wins, the rest fall through to the read.
func (sc *SettingsController) GetSettings(c *fiber.Ctx) error {
	workspaceID := c.Locals("workspaceID").(uint)

	var settings models.CrmSettings
	err := sc.DB.Where("workspace_id = ?", workspaceID).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		defaults := models.DefaultCrmSettings(workspaceID)
		if err := sc.DB.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "workspace_id"}},
			DoNothing: true,
		}).Create(&defaults).Error; err != nil {
			sc.Logger.Printf("Failed to create default settings: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to create settings",
			})
		}
		err = sc.DB.Where("workspace_id = ?", workspaceID).First(&settings).Error
	}
	if err != nil {
		sc.Logger.Printf("Database error fetching settings: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}

	return c.JSON(fiber.Map{
		"settings": settings,
	})
}

// UpdateSettings merges the allow-listed fields of the payload into the
// workspace's settings row, creating it from the given fields if it does not
// exist yet. Unknown keys are dropped.
func (sc *SettingsController) UpdateSettings(c *fiber.Ctx) error {
	workspaceID := c.Locals("workspaceID").(uint)

	var input struct {
		CrmMode                *string                         `json:"crm_mode"`
		VisibleColumns         *[]string                       `json:"visible_columns"`
		CustomFieldDefinitions *[]models.CustomFieldDefinition `json:"custom_field_definitions"`
		AutoAddOnReply         *bool                           `json:"auto_add_on_reply"`
		AutoAddOnMeeting       *bool                           `json:"auto_add_on_meeting"`
		DefaultStage           *string                         `json:"default_stage"`
	}

	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	var settings models.CrmSettings
	err := sc.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("workspace_id = ?", workspaceID).First(&settings).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Seed from the caller's fields only; column defaults cover the rest
			settings = models.CrmSettings{WorkspaceID: workspaceID}
			applySettingsInput(&settings, input.CrmMode, input.VisibleColumns,
				input.CustomFieldDefinitions, input.AutoAddOnReply, input.AutoAddOnMeeting, input.DefaultStage)
			return tx.Create(&settings).Error
		}
		if err != nil {
			return err
		}

		applySettingsInput(&settings, input.CrmMode, input.VisibleColumns,
			input.CustomFieldDefinitions, input.AutoAddOnReply, input.AutoAddOnMeeting, input.DefaultStage)
		return tx.Save(&settings).Error
	})
	if err != nil {
		sc.Logger.Printf("Failed to update settings: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to update settings",
		})
	}

	return c.JSON(fiber.Map{
		"settings": settings,
	})
}

func applySettingsInput(
	settings *models.CrmSettings,
	crmMode *string,
	visibleColumns *[]string,
	customFields *[]models.CustomFieldDefinition,
	autoAddOnReply, autoAddOnMeeting *bool,
	defaultStage *string,
) {
	if crmMode != nil {
		settings.CrmMode = *crmMode
	}
	if visibleColumns != nil {
		settings.VisibleColumns = *visibleColumns
	}
	if customFields != nil {
		settings.CustomFieldDefinitions = *customFields
	}
	if autoAddOnReply != nil {
		settings.AutoAddOnReply = *autoAddOnReply
	}
	if autoAddOnMeeting != nil {
		settings.AutoAddOnMeeting = *autoAddOnMeeting
	}
	if defaultStage != nil {
		settings.DefaultStage = *defaultStage
	}
}
