package controller

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"outreachly/models"
	"outreachly/utils"
)

const (
	ErrInvalidDomainID     = "invalid domain ID"
	ErrDomainNotFound      = "domain not found"
	ErrUnknownSchedule     = "unknown warmup schedule type"
	ErrNoWarmupAction      = "no schedule or action in request"
	ErrUnknownWarmupAction = "unknown warmup action"
	ErrCustomLimitRequired = "custom schedule requires a positive daily limit"
)

type WarmupController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewWarmupController(db *gorm.DB, logger *log.Logger) *WarmupController {
	return &WarmupController{
		DB:     db,
		Logger: logger,
	}
}

func (wc *WarmupController) findDomain(c *fiber.Ctx, domainID int) (*models.SendingDomain, error) {
	workspaceID := c.Locals("workspaceID").(uint)

	var domain models.SendingDomain
	if err := wc.DB.Where("id = ? AND workspace_id = ?", domainID, workspaceID).First(&domain).Error; err != nil {
		return nil, err
	}
	return &domain, nil
}

// UpdateWarmup handles schedule changes and the resume action for a sending
// domain. Validation happens before any write: an unknown schedule name
// leaves the domain untouched.
func (wc *WarmupController) UpdateWarmup(c *fiber.Ctx) error {
	domainID, err := c.ParamsInt("domainId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": ErrInvalidDomainID,
		})
	}

	var input struct {
		ScheduleType     *string `json:"schedule_type"`
		CustomDailyLimit *int    `json:"custom_daily_limit"`
		Action           *string `json:"action"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if input.ScheduleType == nil && input.Action == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": ErrNoWarmupAction,
		})
	}

	updates := make(map[string]interface{})

	if input.ScheduleType != nil {
		scheduleType := *input.ScheduleType
		if !models.ValidWarmupSchedule(scheduleType) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": ErrUnknownSchedule,
			})
		}
		updates["warmup_schedule_type"] = scheduleType
		if scheduleType == models.WarmupScheduleCustom {
			if input.CustomDailyLimit == nil || *input.CustomDailyLimit <= 0 {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": ErrCustomLimitRequired,
				})
			}
			updates["custom_daily_limit"] = *input.CustomDailyLimit
		}
	}

	if input.Action != nil {
		switch *input.Action {
		case "resume":
			updates["warmup_paused"] = false
		case "pause":
			updates["warmup_paused"] = true
		default:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": ErrUnknownWarmupAction,
			})
		}
	}

	domain, err := wc.findDomain(c, domainID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": ErrDomainNotFound,
			})
		}
		wc.Logger.Printf("Database error fetching domain: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}

	updates["updated_at"] = time.Now().UTC()
	if err := wc.DB.Model(domain).Updates(updates).Error; err != nil {
		wc.Logger.Printf("Failed to update warmup for domain %d: %v", domainID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to update warmup",
		})
	}

	utils.LogEvent("warmup_updated", map[string]interface{}{
		"domain_id": domainID,
		"updates":   updates,
	})

	domain.Sanitize()
	return c.JSON(fiber.Map{
		"success": true,
		"domain":  domain,
	})
}

// PauseWarmup suspends sending for a domain without losing ramp progress.
func (wc *WarmupController) PauseWarmup(c *fiber.Ctx) error {
	domainID, err := c.ParamsInt("domainId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": ErrInvalidDomainID,
		})
	}

	domain, err := wc.findDomain(c, domainID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": ErrDomainNotFound,
			})
		}
		wc.Logger.Printf("Database error fetching domain: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}

	if err := wc.DB.Model(domain).Update("warmup_paused", true).Error; err != nil {
		wc.Logger.Printf("Failed to pause warmup for domain %d: %v", domainID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to pause warmup",
		})
	}

	return c.JSON(fiber.Map{
		"success":       true,
		"warmup_paused": true,
	})
}

// GetWarmupStatus reports the domain's ramp position and today's send cap.
func (wc *WarmupController) GetWarmupStatus(c *fiber.Ctx) error {
	domainID, err := c.ParamsInt("domainId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": ErrInvalidDomainID,
		})
	}

	domain, err := wc.findDomain(c, domainID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": ErrDomainNotFound,
			})
		}
		wc.Logger.Printf("Database error fetching domain: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"schedule_type":     domain.WarmupScheduleType,
			"warmup_paused":     domain.WarmupPaused,
			"warmup_day":        domain.WarmupDay,
			"warmup_sent_today": domain.WarmupSentToday,
			"today_limit":       domain.TodayLimit(),
			"warmup_complete":   domain.WarmupComplete(),
		},
	})
}
