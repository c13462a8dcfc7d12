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

type DomainController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewDomainController(db *gorm.DB, logger *log.Logger) *DomainController {
	return &DomainController{
		DB:     db,
		Logger: logger,
	}
}

// GetDomains lists the workspace's sending domains with credentials stripped.
func (dc *DomainController) GetDomains(c *fiber.Ctx) error {
	workspaceID := c.Locals("workspaceID").(uint)

	var domains []models.SendingDomain
	if err := dc.DB.Where("workspace_id = ?", workspaceID).Order("created_at DESC").Find(&domains).Error; err != nil {
		dc.Logger.Printf("Database error fetching domains: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to fetch domains",
		})
	}

	for i := range domains {
		domains[i].Sanitize()
	}

	return c.JSON(fiber.Map{
		"domains": domains,
		"total":   len(domains),
	})
}

// GetDomain returns a single sending domain.
func (dc *DomainController) GetDomain(c *fiber.Ctx) error {
	workspaceID := c.Locals("workspaceID").(uint)

	domainID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": ErrInvalidDomainID,
		})
	}

	var domain models.SendingDomain
	if err := dc.DB.Where("id = ? AND workspace_id = ?", domainID, workspaceID).First(&domain).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": ErrDomainNotFound,
			})
		}
		dc.Logger.Printf("Database error fetching domain: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}

	domain.Sanitize()
	return c.JSON(fiber.Map{
		"domain": domain,
	})
}

// TestConnection runs the live SMTP connectivity probe for a domain. A
// failed probe is a reported result, not an error: the response is always
// 200 once the domain has been resolved.
func (dc *DomainController) TestConnection(c *fiber.Ctx) error {
	workspaceID := c.Locals("workspaceID").(uint)

	domainID := c.Query("id")
	if domainID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "domain id is required",
		})
	}

	var domain models.SendingDomain
	if err := dc.DB.Where("id = ? AND workspace_id = ?", domainID, workspaceID).First(&domain).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": ErrDomainNotFound,
			})
		}
		dc.Logger.Printf("Database error fetching domain: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}

	password, err := utils.Decrypt(domain.SMTPPassword)
	if err != nil {
		utils.LogError("decrypt_failed", err, map[string]interface{}{
			"operation": "SMTP password decryption",
			"domain_id": domain.ID,
		})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to decrypt SMTP password",
		})
	}

	testRecipient := c.Query("send_to")
	report := utils.TestDomainConnection(domain, password, testRecipient)

	now := time.Now().UTC()
	updates := map[string]interface{}{
		"last_tested_at": now,
		"last_error":     nil,
	}
	if !report.Success {
		updates["last_error"] = report.Message
	}
	if err := dc.DB.Model(&domain).Updates(updates).Error; err != nil {
		dc.Logger.Printf("Failed to record test result for domain %d: %v", domain.ID, err)
	}

	utils.LogEvent("domain_test_completed", map[string]interface{}{
		"domain_id":    domain.ID,
		"smtp_success": report.SMTP.Success,
		"email_sent":   report.EmailSent,
	})

	return c.JSON(fiber.Map{
		"success": report.Success,
		"message": report.Message,
		"checks": fiber.Map{
			"format":     report.Format,
			"mx":         report.MX,
			"smtp":       report.SMTP,
			"email_sent": report.EmailSent,
		},
		"whois":     report.WHOIS,
		"tested_at": now,
	})
}
