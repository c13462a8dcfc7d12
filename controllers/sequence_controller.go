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
	ErrInvalidSequenceID = "invalid sequence ID"
	ErrSequenceNotFound  = "sequence not found"
	ErrNoUpdatableFields = "no updatable fields in request"
	ErrInvalidIDList     = "ids must be a non-empty list"
)

type SequenceController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewSequenceController(db *gorm.DB, logger *log.Logger) *SequenceController {
	return &SequenceController{
		DB:     db,
		Logger: logger,
	}
}

// GetSequence returns a single sequence by id.
func (sq *SequenceController) GetSequence(c *fiber.Ctx) error {
	workspaceID := c.Locals("workspaceID").(uint)

	sequenceID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": ErrInvalidSequenceID,
		})
	}

	var sequence models.EmailSequence
	if err := sq.DB.Where("id = ? AND workspace_id = ?", sequenceID, workspaceID).First(&sequence).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": ErrSequenceNotFound,
			})
		}
		sq.Logger.Printf("Database error fetching sequence: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}

	return c.JSON(fiber.Map{
		"sequence": sequence,
	})
}

// UpdateSequence applies an allow-listed partial update. Unknown payload
// keys are silently dropped; a payload with no recognized fields is a 400
// before anything is written. The update and the re-read run in one
// transaction so a concurrent delete cannot slip between them.
func (sq *SequenceController) UpdateSequence(c *fiber.Ctx) error {
	workspaceID := c.Locals("workspaceID").(uint)

	sequenceID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": ErrInvalidSequenceID,
		})
	}

	var payload map[string]interface{}
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	updates := make(map[string]interface{})
	for key, value := range payload {
		column, ok := models.SequenceUpdatableFields[key]
		if !ok {
			continue
		}
		if key == "status" {
			status, ok := value.(string)
			if !ok || !models.ValidSequenceStatus(status) {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "unknown sequence status",
				})
			}
		}
		updates[column] = value
	}

	if len(updates) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": ErrNoUpdatableFields,
		})
	}
	updates["updated_at"] = time.Now().UTC()

	var sequence models.EmailSequence
	notFound := false
	err = sq.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.EmailSequence{}).
			Where("id = ? AND workspace_id = ?", sequenceID, workspaceID).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			notFound = true
			return nil
		}
		return tx.Where("id = ? AND workspace_id = ?", sequenceID, workspaceID).First(&sequence).Error
	})
	if err != nil {
		sq.Logger.Printf("Failed to update sequence %d: %v", sequenceID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to update sequence",
		})
	}
	if notFound {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": ErrSequenceNotFound,
		})
	}

	return c.JSON(fiber.Map{
		"sequence": sequence,
	})
}

// DeleteSequence removes a sequence. Deleting a row that is already gone is
// still a success.
func (sq *SequenceController) DeleteSequence(c *fiber.Ctx) error {
	workspaceID := c.Locals("workspaceID").(uint)

	sequenceID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": ErrInvalidSequenceID,
		})
	}

	if err := sq.DB.Where("id = ? AND workspace_id = ?", sequenceID, workspaceID).
		Delete(&models.EmailSequence{}).Error; err != nil {
		sq.Logger.Printf("Failed to delete sequence %d: %v", sequenceID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to delete sequence",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
	})
}

// ApproveSequence marks a sequence approved along with its step flags.
func (sq *SequenceController) ApproveSequence(c *fiber.Ctx) error {
	workspaceID := c.Locals("workspaceID").(uint)

	sequenceID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": ErrInvalidSequenceID,
		})
	}

	var sequence models.EmailSequence
	notFound := false
	err = sq.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.EmailSequence{}).
			Where("id = ? AND workspace_id = ?", sequenceID, workspaceID).
			Updates(map[string]interface{}{
				"status":     models.SequenceStatusApproved,
				"approved1":  true,
				"approved2":  true,
				"approved3":  true,
				"approved4":  true,
				"approved5":  true,
				"updated_at": time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			notFound = true
			return nil
		}
		return tx.Where("id = ? AND workspace_id = ?", sequenceID, workspaceID).First(&sequence).Error
	})
	if err != nil {
		sq.Logger.Printf("Failed to approve sequence %d: %v", sequenceID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to approve sequence",
		})
	}
	if notFound {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": ErrSequenceNotFound,
		})
	}

	utils.LogEvent("sequence_approved", map[string]interface{}{
		"workspace_id": workspaceID,
		"sequence_id":  sequenceID,
	})

	return c.JSON(fiber.Map{
		"success":  true,
		"sequence": sequence,
	})
}

// RejectBulk resets the status of every matching sequence to pending_review
// in one set-based update. Ids that do not exist are silently ignored; the
// response reports only the ids actually affected.
func (sq *SequenceController) RejectBulk(c *fiber.Ctx) error {
	workspaceID := c.Locals("workspaceID").(uint)

	var input struct {
		IDs []uint `json:"ids"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": ErrInvalidIDList,
		})
	}
	if len(input.IDs) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": ErrInvalidIDList,
		})
	}

	var affected []uint
	err := sq.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.EmailSequence{}).
			Where("workspace_id = ? AND id IN ?", workspaceID, input.IDs).
			Pluck("id", &affected).Error; err != nil {
			return err
		}
		if len(affected) == 0 {
			return nil
		}
		return tx.Model(&models.EmailSequence{}).
			Where("workspace_id = ? AND id IN ?", workspaceID, affected).
			Updates(map[string]interface{}{
				"status":     models.SequenceStatusPendingReview,
				"updated_at": time.Now().UTC(),
			}).Error
	})
	if err != nil {
		sq.Logger.Printf("Failed to bulk reject sequences: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to reject sequences",
		})
	}

	utils.LogEvent("sequences_rejected", map[string]interface{}{
		"workspace_id": workspaceID,
		"requested":    len(input.IDs),
		"rejected":     len(affected),
	})

	if affected == nil {
		affected = []uint{}
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"rejected": len(affected),
		"ids":      affected,
	})
}
