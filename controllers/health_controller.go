package controller

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"outreachly/config"
	"outreachly/utils"
)

type HealthController struct {
	DB      *gorm.DB
	Prober  *utils.APIProber
	Keys    config.ExternalAPIConfig
	Version string
	Timeout time.Duration
	Logger  *log.Logger
}

func NewHealthController(db *gorm.DB, prober *utils.APIProber, keys config.ExternalAPIConfig, version string, timeout time.Duration, logger *log.Logger) *HealthController {
	return &HealthController{
		DB:      db,
		Prober:  prober,
		Keys:    keys,
		Version: version,
		Timeout: timeout,
		Logger:  logger,
	}
}

// GetHealth runs every dependency check independently, each bounded by the
// probe timeout so one slow dependency cannot stall the composite result.
// The database and the inbox-provider key are load-bearing; the AI,
// email-send and calendar keys are advisory and never flip the overall
// status.
func (hc *HealthController) GetHealth(c *fiber.Ctx) error {
	checks := make(map[string]utils.CheckResult, 5)
	var mu sync.Mutex
	var wg sync.WaitGroup

	run := func(name string, probe func() utils.CheckResult) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result := probe()
			mu.Lock()
			checks[name] = result
			mu.Unlock()
		}()
	}

	run("database", hc.checkDatabase)
	run("anthropic", func() utils.CheckResult { return hc.Prober.CheckAnthropic(hc.Keys.AnthropicKey) })
	run("resend", func() utils.CheckResult { return hc.Prober.CheckResend(hc.Keys.ResendKey) })
	run("calendly", func() utils.CheckResult { return hc.Prober.CheckCalendly(hc.Keys.CalendlyKey) })
	run("notion", func() utils.CheckResult { return hc.Prober.CheckNotion(hc.Keys.NotionKey) })

	wg.Wait()

	status := "healthy"
	httpStatus := fiber.StatusOK
	for _, name := range []string{"database", "notion"} {
		if checks[name].Status == utils.ProbeError {
			status = "degraded"
			httpStatus = fiber.StatusServiceUnavailable
			hc.Logger.Printf("Load-bearing check %q failed: %s", name, checks[name].Message)
		}
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":    status,
		"timestamp": time.Now().UTC(),
		"checks":    checks,
		"version":   hc.Version,
	})
}

func (hc *HealthController) checkDatabase() utils.CheckResult {
	sqlDB, err := hc.DB.DB()
	if err != nil {
		return utils.CheckResult{Status: utils.ProbeError, Message: err.Error()}
	}

	ctx, cancel := context.WithTimeout(context.Background(), hc.Timeout)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return utils.CheckResult{Status: utils.ProbeError, Message: err.Error()}
	}
	return utils.CheckResult{Status: utils.ProbeOK}
}
