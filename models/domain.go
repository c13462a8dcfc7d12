package models

import (
	"time"

	"gorm.io/gorm"
)

// Warmup schedule types. "custom" uses the domain's CustomDailyLimit as a
// flat cap instead of a ramp curve.
const (
	WarmupScheduleConservative = "conservative"
	WarmupScheduleStandard     = "standard"
	WarmupScheduleAggressive   = "aggressive"
	WarmupScheduleCustom       = "custom"
)

var warmupSchedules = map[string]bool{
	WarmupScheduleConservative: true,
	WarmupScheduleStandard:     true,
	WarmupScheduleAggressive:   true,
	WarmupScheduleCustom:       true,
}

// ValidWarmupSchedule reports whether s names a known warmup curve.
func ValidWarmupSchedule(s string) bool {
	return warmupSchedules[s]
}

// Daily send caps per warmup day, indexed from day 1. A domain past the end
// of its curve stays at the final cap.
var warmupCurves = map[string][]int{
	WarmupScheduleConservative: {2, 4, 6, 8, 10, 12, 14, 16, 18, 20},
	WarmupScheduleStandard:     {5, 10, 15, 20, 25, 30, 35, 40, 45, 50},
	WarmupScheduleAggressive:   {10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
}

// SendingDomain represents a domain configured for outbound sending along
// with its warmup ramp state.
type SendingDomain struct {
	gorm.Model
	WorkspaceID uint `gorm:"not null;index" json:"workspace_id"`

	Domain    string `gorm:"not null;index" json:"domain"`
	FromEmail string `gorm:"not null;uniqueIndex" json:"from_email"`
	FromName  string `gorm:"not null" json:"from_name"`
	IsActive  bool   `gorm:"default:true" json:"is_active"`

	// SMTP submission config used by the connectivity probe
	SMTPHost     string `json:"smtp_host"`
	SMTPPort     int    `gorm:"default:587" json:"smtp_port"`
	SMTPUsername string `json:"smtp_username"`
	SMTPPassword string `json:"-"`          // encrypted in the application layer
	Encryption   string `json:"encryption"` // SSL, TLS, STARTTLS

	// IMAP config used by the inbox sync
	IMAPHost     string `json:"imap_host"`
	IMAPPort     int    `gorm:"default:993" json:"imap_port"`
	IMAPUsername string `json:"imap_username"`
	IMAPPassword string `json:"-"` // encrypted in the application layer

	// Warmup ramp
	WarmupScheduleType string     `gorm:"default:'standard'" json:"warmup_schedule_type"`
	CustomDailyLimit   *int       `json:"custom_daily_limit"`
	WarmupPaused       bool       `gorm:"default:false" json:"warmup_paused"`
	WarmupDay          int        `gorm:"default:1" json:"warmup_day"`
	WarmupSentToday    int        `gorm:"default:0" json:"warmup_sent_today"`
	WarmupDayStartedAt *time.Time `json:"warmup_day_started_at"`

	DailyLimit int `gorm:"default:500" json:"daily_limit"`

	LastTestedAt *time.Time `json:"last_tested_at"`
	LastError    *string    `json:"last_error"`
}

// Sanitize strips stored credentials before the row is returned to a client.
func (d *SendingDomain) Sanitize() {
	d.SMTPPassword = ""
	d.IMAPPassword = ""
}

// TodayLimit returns the send cap for the domain's current warmup day.
func (d *SendingDomain) TodayLimit() int {
	if d.WarmupScheduleType == WarmupScheduleCustom {
		if d.CustomDailyLimit != nil && *d.CustomDailyLimit > 0 {
			return *d.CustomDailyLimit
		}
		return d.DailyLimit
	}
	curve, ok := warmupCurves[d.WarmupScheduleType]
	if !ok || len(curve) == 0 {
		return d.DailyLimit
	}
	day := d.WarmupDay
	if day < 1 {
		day = 1
	}
	if day > len(curve) {
		day = len(curve)
	}
	return curve[day-1]
}

// WarmupComplete reports whether the domain has walked off the end of its
// ramp curve. Custom schedules never complete on their own.
func (d *SendingDomain) WarmupComplete() bool {
	curve, ok := warmupCurves[d.WarmupScheduleType]
	if !ok {
		return false
	}
	return d.WarmupDay > len(curve)
}
