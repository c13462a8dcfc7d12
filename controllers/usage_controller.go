package controller

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"outreachly/models"
)

type UsageController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewUsageController(db *gorm.DB, logger *log.Logger) *UsageController {
	return &UsageController{
		DB:     db,
		Logger: logger,
	}
}

// GetUsageStats computes the workspace's usage counters for billing and
// quota display. The caller is already authenticated and scoped by the
// middleware; the workspace row is still re-read so a deleted workspace
// reports 404 instead of zeros.
func (uc *UsageController) GetUsageStats(c *fiber.Ctx) error {
	workspaceID := c.Locals("workspaceID").(uint)

	var workspace models.Workspace
	if err := uc.DB.First(&workspace, workspaceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "workspace not found",
			})
		}
		uc.Logger.Printf("Database error fetching workspace: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}

	stats := struct {
		Sequences      int64 `json:"sequences"`
		SendingDomains int64 `json:"sending_domains"`
		SentThisMonth  int64 `json:"sent_this_month"`
		Touchpoints    int64 `json:"touchpoints"`
		TotalOpens     int64 `json:"total_opens"`
		TotalClicks    int64 `json:"total_clicks"`
	}{}

	monthStart := time.Now().UTC()
	monthStart = time.Date(monthStart.Year(), monthStart.Month(), 1, 0, 0, 0, 0, time.UTC)

	// Independent counts run in parallel
	var wg sync.WaitGroup
	errs := make([]error, 6)

	wg.Add(1)
	go func() {
		defer wg.Done()
		errs[0] = uc.DB.Model(&models.EmailSequence{}).
			Where("workspace_id = ?", workspaceID).
			Count(&stats.Sequences).Error
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		errs[1] = uc.DB.Model(&models.SendingDomain{}).
			Where("workspace_id = ?", workspaceID).
			Count(&stats.SendingDomains).Error
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		errs[2] = uc.DB.Model(&models.InboxMessage{}).
			Where("workspace_id = ? AND direction = ? AND received_at >= ?",
				workspaceID, models.DirectionOutbound, monthStart).
			Count(&stats.SentThisMonth).Error
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		errs[3] = uc.DB.Model(&models.Touchpoint{}).
			Where("workspace_id = ?", workspaceID).
			Count(&stats.Touchpoints).Error
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		errs[4] = uc.DB.Model(&models.EmailEvent{}).
			Joins("JOIN touchpoints ON touchpoints.id = email_events.touchpoint_id").
			Where("touchpoints.workspace_id = ? AND email_events.event_type = ?",
				workspaceID, models.EventOpened).
			Count(&stats.TotalOpens).Error
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		errs[5] = uc.DB.Model(&models.EmailEvent{}).
			Joins("JOIN touchpoints ON touchpoints.id = email_events.touchpoint_id").
			Where("touchpoints.workspace_id = ? AND email_events.event_type = ?",
				workspaceID, models.EventClicked).
			Count(&stats.TotalClicks).Error
	}()

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			uc.Logger.Printf("Error computing usage stats: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to compute usage",
			})
		}
	}

	return c.JSON(fiber.Map{
		"usage": fiber.Map{
			"workspace_id": workspace.ID,
			"plan":         workspace.PlanName,
			"counters":     stats,
		},
	})
}
