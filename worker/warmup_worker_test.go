package worker

import (
	"io"
	"log"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"outreachly/models"
)

func newTestWorker(t *testing.T) (*WarmupWorker, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	return NewWarmupWorker(gdb, log.New(io.Discard, "", 0)), mock
}

func TestIsNewDay(t *testing.T) {
	base := time.Date(2026, 3, 10, 23, 50, 0, 0, time.UTC)

	assert.False(t, isNewDay(base, base.Add(5*time.Minute)))
	assert.True(t, isNewDay(base, base.Add(15*time.Minute)))
	assert.True(t, isNewDay(base, base.AddDate(0, 1, 0)))
	// Wall-clock comparison happens in UTC regardless of input zone
	est := time.FixedZone("EST", -5*3600)
	assert.False(t, isNewDay(base, base.Add(5*time.Minute).In(est)))
}

func TestProcessDomainInitializesDayStart(t *testing.T) {
	ww, mock := newTestWorker(t)

	mock.ExpectExec(`UPDATE "sending_domains" SET .*warmup_day_started_at`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	domain := models.SendingDomain{
		Model:              gorm.Model{ID: 1},
		WarmupScheduleType: models.WarmupScheduleStandard,
		WarmupDay:          1,
	}
	require.NoError(t, ww.processDomain(domain))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessDomainSameDayIsNoop(t *testing.T) {
	ww, mock := newTestWorker(t)

	now := time.Now().UTC()
	domain := models.SendingDomain{
		Model:              gorm.Model{ID: 1},
		WarmupScheduleType: models.WarmupScheduleStandard,
		WarmupDay:          3,
		WarmupDayStartedAt: &now,
	}
	require.NoError(t, ww.processDomain(domain))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessDomainRollsOverAndAdvances(t *testing.T) {
	ww, mock := newTestWorker(t)

	mock.ExpectExec(`UPDATE "sending_domains" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	yesterday := time.Now().UTC().AddDate(0, 0, -1)
	domain := models.SendingDomain{
		Model:              gorm.Model{ID: 1},
		WarmupScheduleType: models.WarmupScheduleStandard,
		WarmupDay:          3,
		WarmupSentToday:    15,
		WarmupDayStartedAt: &yesterday,
	}
	require.NoError(t, ww.processDomain(domain))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessDomainCompletedRampOnlyResetsCounter(t *testing.T) {
	ww, mock := newTestWorker(t)

	// Past the end of the curve: the day counter holds, only the daily
	// counter resets
	mock.ExpectExec(`UPDATE "sending_domains" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	yesterday := time.Now().UTC().AddDate(0, 0, -1)
	domain := models.SendingDomain{
		Model:              gorm.Model{ID: 1},
		WarmupScheduleType: models.WarmupScheduleStandard,
		WarmupDay:          11,
		WarmupSentToday:    50,
		WarmupDayStartedAt: &yesterday,
	}
	require.NoError(t, ww.processDomain(domain))
	assert.NoError(t, mock.ExpectationsWereMet())
}
