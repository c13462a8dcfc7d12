package controller

import (
	"errors"
	"log"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberutils "github.com/gofiber/fiber/v2/utils"
	"gorm.io/gorm"

	"outreachly/models"
	"outreachly/utils"
)

type TrackingController struct {
	DB     *gorm.DB
	Logger *log.Logger
	Hub    *EngagementHub
}

func NewTrackingController(db *gorm.DB, logger *log.Logger, hub *EngagementHub) *TrackingController {
	return &TrackingController{
		DB:     db,
		Logger: logger,
		Hub:    hub,
	}
}

// openMetadata is the request context captured for an open event. Values are
// copied out of the fiber ctx before the handler returns; the ctx buffers
// are reused after that.
type openMetadata struct {
	UserAgent string
	IPAddress string
	Geo       string
}

// HandleOpenTracking serves the tracking pixel. The response never waits on
// the database: the pixel goes out immediately and the event write runs on
// its own goroutine. Unknown or stale tokens are a silent no-op.
func (tc *TrackingController) HandleOpenTracking(c *fiber.Ctx) error {
	token := fiberutils.CopyString(c.Params("trackingId"))

	meta := openMetadata{
		UserAgent: fiberutils.CopyString(c.Get("User-Agent")),
		IPAddress: fiberutils.CopyString(c.IP()),
		Geo:       fiberutils.CopyString(c.Get("X-Geo-Country")),
	}

	go tc.recordOpen(token, meta)

	setPixelHeaders(c)
	return c.Send(transparentPixel())
}

// HandleClickTracking records a click and forwards to the original URL.
// Without a usable url parameter it degrades to the pixel behavior.
func (tc *TrackingController) HandleClickTracking(c *fiber.Ctx) error {
	token := fiberutils.CopyString(c.Params("trackingId"))
	originalURL := fiberutils.CopyString(c.Query("url"))
	if u, err := url.Parse(originalURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		originalURL = ""
	}

	meta := openMetadata{
		UserAgent: fiberutils.CopyString(c.Get("User-Agent")),
		IPAddress: fiberutils.CopyString(c.IP()),
		Geo:       fiberutils.CopyString(c.Get("X-Geo-Country")),
	}

	go tc.recordClick(token, originalURL, meta)

	if originalURL == "" {
		setPixelHeaders(c)
		return c.Send(transparentPixel())
	}
	return c.Redirect(originalURL, fiber.StatusFound)
}

// HandleEventWebhook ingests delivery-provider events (delivered, bounced,
// complained, unsubscribed, replied). Unknown tokens are accepted and
// dropped, matching the pixel path.
func (tc *TrackingController) HandleEventWebhook(c *fiber.Ctx) error {
	var input struct {
		TrackingToken string `json:"tracking_token" validate:"required"`
		EventType     string `json:"event_type" validate:"required"`
		Timestamp     int64  `json:"timestamp"`
		ClickedURL    string `json:"clicked_url"`
		BounceType    string `json:"bounce_type"`
		BounceReason  string `json:"bounce_reason"`
	}

	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if err := utils.ValidateStruct(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if !models.ValidEventType(input.EventType) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "unknown event type",
		})
	}

	occurredAt := time.Now().UTC()
	if input.Timestamp > 0 {
		occurredAt = time.Unix(input.Timestamp, 0).UTC()
	}

	event := models.EmailEvent{
		EventType:    input.EventType,
		OccurredAt:   occurredAt,
		ClickedURL:   input.ClickedURL,
		BounceType:   input.BounceType,
		BounceReason: input.BounceReason,
	}

	if err := tc.appendEvent(input.TrackingToken, event); err != nil {
		utils.LogError("event_webhook_write", err, map[string]interface{}{
			"event_type": input.EventType,
		})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to record event",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
	})
}

func (tc *TrackingController) recordOpen(token string, meta openMetadata) {
	event := models.EmailEvent{
		EventType:  models.EventOpened,
		OccurredAt: time.Now().UTC(),
		UserAgent:  meta.UserAgent,
		IPAddress:  meta.IPAddress,
		Geo:        meta.Geo,
	}
	if err := tc.appendEvent(token, event); err != nil {
		utils.LogError("open_tracking_write", err, map[string]interface{}{
			"token": token,
		})
	}
}

func (tc *TrackingController) recordClick(token, clickedURL string, meta openMetadata) {
	event := models.EmailEvent{
		EventType:  models.EventClicked,
		OccurredAt: time.Now().UTC(),
		ClickedURL: clickedURL,
		UserAgent:  meta.UserAgent,
		IPAddress:  meta.IPAddress,
		Geo:        meta.Geo,
	}
	if err := tc.appendEvent(token, event); err != nil {
		utils.LogError("click_tracking_write", err, map[string]interface{}{
			"token": token,
		})
	}
}

// appendEvent resolves the token and writes the event together with its
// counter increment in one transaction, so the aggregate counts never drift
// from the event log. A missing touchpoint is not an error.
func (tc *TrackingController) appendEvent(token string, event models.EmailEvent) error {
	var touchpoint models.Touchpoint
	err := tc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tracking_token = ?", token).First(&touchpoint).Error; err != nil {
			return err
		}

		event.TouchpointID = touchpoint.ID
		if err := tx.Create(&event).Error; err != nil {
			return err
		}

		switch event.EventType {
		case models.EventOpened:
			return tx.Model(&models.Touchpoint{}).
				Where("id = ?", touchpoint.ID).
				Update("open_count", gorm.Expr("open_count + 1")).Error
		case models.EventClicked:
			return tx.Model(&models.Touchpoint{}).
				Where("id = ?", touchpoint.ID).
				Update("click_count", gorm.Expr("click_count + 1")).Error
		}
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Stale or forged token, drop it
		return nil
	}
	if err != nil {
		return err
	}

	if tc.Hub != nil {
		tc.Hub.Broadcast(EngagementNotice{
			TouchpointID: touchpoint.ID,
			Recipient:    touchpoint.Recipient,
			EventType:    event.EventType,
			OccurredAt:   event.OccurredAt,
		})
	}
	return nil
}

func setPixelHeaders(c *fiber.Ctx) {
	c.Set("Content-Type", "image/gif")
	// Every open must reach the handler, so forbid caching at every layer
	c.Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	c.Set("Pragma", "no-cache")
	c.Set("Expires", "0")
}

func transparentPixel() []byte {
	// 1x1 transparent GIF
	return []byte{
		0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00,
		0x80, 0x00, 0x00, 0xff, 0xff, 0xff, 0x00, 0x00, 0x00, 0x21,
		0xf9, 0x04, 0x01, 0x00, 0x00, 0x00, 0x00, 0x2c, 0x00, 0x00,
		0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0x02, 0x02, 0x44,
		0x01, 0x00, 0x3b,
	}
}
