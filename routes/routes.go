package routes

import (
	"log"
	"os"

	"outreachly/config"
	controller "outreachly/controllers"
	"outreachly/middleware"
	"outreachly/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/websocket/v2"
	"gorm.io/gorm"
)

// SetupTrackingRoutes registers the public engagement endpoints. These are
// hit by recipient mail clients and provider webhooks, so they sit outside
// the authenticated API group.
func SetupTrackingRoutes(app *fiber.App, trackingController *controller.TrackingController) {
	track := app.Group("/track", logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// HEAD is served automatically for registered GET routes, which is what
	// link-preview bots send before fetching the pixel.
	track.Get("/open/:trackingId.gif", trackingController.HandleOpenTracking)
	track.Get("/click/:trackingId", trackingController.HandleClickTracking)
	track.Post("/events", trackingController.HandleEventWebhook)
}

func SetupAPIRoutes(app *fiber.App, db *gorm.DB, hub *controller.EngagementHub) {
	// Initialize controllers with their respective loggers
	settingsController := controller.NewSettingsController(db, log.New(os.Stdout, "SETTINGS: ", log.LstdFlags))
	sequenceController := controller.NewSequenceController(db, log.New(os.Stdout, "SEQUENCE: ", log.LstdFlags))
	warmupController := controller.NewWarmupController(db, log.New(os.Stdout, "WARMUP: ", log.Ldate|log.Ltime|log.Lshortfile))
	domainController := controller.NewDomainController(db, log.New(os.Stdout, "DOMAIN: ", log.LstdFlags))
	inboxController := controller.NewInboxController(db, log.New(os.Stdout, "INBOX: ", log.LstdFlags))
	usageController := controller.NewUsageController(db, log.New(os.Stdout, "USAGE: ", log.LstdFlags))

	// API group with versioning and protection
	api := app.Group("/api/v1", middleware.Protected(), logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Workspace settings routes
	settings := api.Group("/settings")
	settings.Get("/", settingsController.GetSettings)
	settings.Patch("/", settingsController.UpdateSettings)

	// Sequence routes
	sequence := api.Group("/sequences")
	sequence.Get("/:id", sequenceController.GetSequence)
	sequence.Patch("/:id", sequenceController.UpdateSequence)
	sequence.Delete("/:id", sequenceController.DeleteSequence)
	sequence.Post("/:id/approve", sequenceController.ApproveSequence)
	sequence.Post("/reject-bulk", sequenceController.RejectBulk)

	// Sending domain routes, with rate limiting on the live SMTP test
	domain := api.Group("/domains")
	domain.Get("/", domainController.GetDomains)
	domain.Get("/:id", domainController.GetDomain)
	domain.Post("/test", middleware.ProbeRateLimiter(), domainController.TestConnection)

	// Warmup routes
	warmup := api.Group("/warmup")
	warmup.Patch("/:domainId", warmupController.UpdateWarmup)
	warmup.Post("/:domainId/pause", warmupController.PauseWarmup)
	warmup.Get("/:domainId", warmupController.GetWarmupStatus)

	// Inbox routes
	inbox := api.Group("/inbox")
	inbox.Get("/senders", inboxController.ListSenders)
	inbox.Post("/sync", inboxController.SyncInbox)

	// Usage routes
	api.Get("/usage", usageController.GetUsageStats)

	// WebSocket route for the live engagement feed
	app.Get("/api/v1/engagement/live", websocket.New(func(c *websocket.Conn) {
		hub.HandleLiveFeed(c)
	}))

	log.Println("API routes initialized successfully")
}

func SetupRoutes(app *fiber.App, db *gorm.DB, hub *controller.EngagementHub) {
	// Composite health check, public so load balancers can reach it
	prober := utils.NewAPIProber(config.AppConfig.ProbeTimeout)
	healthController := controller.NewHealthController(
		db,
		prober,
		config.AppConfig.External,
		config.AppConfig.Version,
		config.AppConfig.ProbeTimeout,
		log.New(os.Stdout, "HEALTH: ", log.LstdFlags),
	)
	app.Get("/health", healthController.GetHealth)

	trackingController := controller.NewTrackingController(db, log.New(os.Stdout, "TRACKING: ", log.LstdFlags), hub)

	// Setup tracking routes
	SetupTrackingRoutes(app, trackingController)

	// Setup API routes
	SetupAPIRoutes(app, db, hub)

	// Setup 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "Not Found",
			"message": "The requested resource was not found",
		})
	})
}
