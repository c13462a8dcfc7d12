package worker

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	"outreachly/models"
)

// WarmupWorker walks every active sending domain along its warmup curve:
// at day rollover the daily counter resets and the ramp advances one day.
// Paused domains hold their position.
type WarmupWorker struct {
	DB     *gorm.DB
	Logger *log.Logger

	// Poll interval, overridable in tests
	Interval time.Duration
}

func NewWarmupWorker(db *gorm.DB, logger *log.Logger) *WarmupWorker {
	return &WarmupWorker{
		DB:       db,
		Logger:   logger,
		Interval: time.Minute,
	}
}

func (ww *WarmupWorker) Start(ctx context.Context) {
	ww.Logger.Println("Warmup worker started")

	ticker := time.NewTicker(ww.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			ww.Logger.Println("Warmup worker shutting down...")
			return
		case <-ticker.C:
			ww.ProcessActiveWarmups()
		}
	}
}

func (ww *WarmupWorker) ProcessActiveWarmups() {
	var domains []models.SendingDomain
	if err := ww.DB.Where("is_active = ? AND warmup_paused = ?", true, false).Find(&domains).Error; err != nil {
		ww.Logger.Printf("Error fetching active domains: %v", err)
		return
	}

	for _, domain := range domains {
		if err := ww.processDomain(domain); err != nil {
			ww.Logger.Printf("Error processing warmup for domain %d: %v", domain.ID, err)
		}
	}
}

func (ww *WarmupWorker) processDomain(domain models.SendingDomain) error {
	now := time.Now().UTC()

	if domain.WarmupDayStartedAt == nil {
		return ww.DB.Model(&domain).Update("warmup_day_started_at", now).Error
	}

	if !isNewDay(*domain.WarmupDayStartedAt, now) {
		return nil
	}

	updates := map[string]interface{}{
		"warmup_sent_today":     0,
		"warmup_day_started_at": now,
	}
	advanced := domain
	if !domain.WarmupComplete() {
		advanced.WarmupDay = domain.WarmupDay + 1
		updates["warmup_day"] = advanced.WarmupDay
	}

	if err := ww.DB.Model(&domain).Updates(updates).Error; err != nil {
		return err
	}

	if advanced.WarmupComplete() && !domain.WarmupComplete() {
		ww.Logger.Printf("Domain %d finished its %s warmup ramp", domain.ID, domain.WarmupScheduleType)
	}
	return nil
}

func isNewDay(since, now time.Time) bool {
	y1, m1, d1 := since.UTC().Date()
	y2, m2, d2 := now.UTC().Date()
	return y1 != y2 || m1 != m2 || d1 != d2
}
