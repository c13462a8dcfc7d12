package controller

import (
	"encoding/json"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupWarmupApp(t *testing.T) (sqlmock.Sqlmock, *fiber.App) {
	t.Helper()

	db, mock := newMockDB(t)
	wc := NewWarmupController(db, discardLogger())

	app := newTestApp()
	app.Patch("/warmup/:domainId", wc.UpdateWarmup)
	app.Post("/warmup/:domainId/pause", wc.PauseWarmup)
	app.Get("/warmup/:domainId", wc.GetWarmupStatus)
	return mock, app
}

func domainRow(id uint) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "workspace_id", "domain", "from_email", "is_active",
		"warmup_schedule_type", "warmup_paused", "warmup_day", "warmup_sent_today", "daily_limit",
	}).AddRow(id, testWorkspaceID, "acme.com", "sales@acme.com", true,
		"standard", true, 4, 12, 500)
}

func TestUpdateWarmupRejectsUnknownScheduleBeforeAnyWrite(t *testing.T) {
	mock, app := setupWarmupApp(t)

	// No expectations registered: validation must fail before the domain is
	// even fetched.
	status, resp := doJSON(t, app, "PATCH", "/warmup/7", []byte(`{"schedule_type":"turbo"}`))
	assert.Equal(t, 400, status)
	assert.Contains(t, resp, ErrUnknownSchedule)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateWarmupCustomRequiresLimit(t *testing.T) {
	mock, app := setupWarmupApp(t)

	status, resp := doJSON(t, app, "PATCH", "/warmup/7", []byte(`{"schedule_type":"custom"}`))
	assert.Equal(t, 400, status)
	assert.Contains(t, resp, ErrCustomLimitRequired)

	status, _ = doJSON(t, app, "PATCH", "/warmup/7", []byte(`{"schedule_type":"custom","custom_daily_limit":-5}`))
	assert.Equal(t, 400, status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateWarmupEmptyPayload(t *testing.T) {
	mock, app := setupWarmupApp(t)

	status, resp := doJSON(t, app, "PATCH", "/warmup/7", []byte(`{}`))
	assert.Equal(t, 400, status)
	assert.Contains(t, resp, ErrNoWarmupAction)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateWarmupUnknownAction(t *testing.T) {
	mock, app := setupWarmupApp(t)

	status, resp := doJSON(t, app, "PATCH", "/warmup/7", []byte(`{"action":"restart"}`))
	assert.Equal(t, 400, status)
	assert.Contains(t, resp, ErrUnknownWarmupAction)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateWarmupDomainNotFound(t *testing.T) {
	mock, app := setupWarmupApp(t)

	mock.ExpectQuery(`SELECT \* FROM "sending_domains"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	status, resp := doJSON(t, app, "PATCH", "/warmup/99", []byte(`{"action":"resume"}`))
	assert.Equal(t, 404, status)
	assert.Contains(t, resp, ErrDomainNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateWarmupResume(t *testing.T) {
	mock, app := setupWarmupApp(t)

	mock.ExpectQuery(`SELECT \* FROM "sending_domains"`).
		WillReturnRows(domainRow(7))
	mock.ExpectExec(`UPDATE "sending_domains" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	status, resp := doJSON(t, app, "PATCH", "/warmup/7", []byte(`{"action":"resume"}`))
	assert.Equal(t, 200, status)
	assert.Contains(t, resp, `"success":true`)
	// Credentials never leak through the response
	assert.NotContains(t, resp, "smtp_password")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPauseWarmup(t *testing.T) {
	mock, app := setupWarmupApp(t)

	mock.ExpectQuery(`SELECT \* FROM "sending_domains"`).
		WillReturnRows(domainRow(7))
	mock.ExpectExec(`UPDATE "sending_domains" SET .*warmup_paused`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	status, resp := doJSON(t, app, "POST", "/warmup/7/pause", nil)
	assert.Equal(t, 200, status)
	assert.Contains(t, resp, `"warmup_paused":true`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetWarmupStatus(t *testing.T) {
	mock, app := setupWarmupApp(t)

	mock.ExpectQuery(`SELECT \* FROM "sending_domains"`).
		WillReturnRows(domainRow(7))

	status, resp := doJSON(t, app, "GET", "/warmup/7", nil)
	assert.Equal(t, 200, status)

	var out struct {
		Data struct {
			ScheduleType    string `json:"schedule_type"`
			WarmupPaused    bool   `json:"warmup_paused"`
			WarmupDay       int    `json:"warmup_day"`
			WarmupSentToday int    `json:"warmup_sent_today"`
			TodayLimit      int    `json:"today_limit"`
			WarmupComplete  bool   `json:"warmup_complete"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(resp), &out))
	assert.Equal(t, "standard", out.Data.ScheduleType)
	assert.True(t, out.Data.WarmupPaused)
	assert.Equal(t, 4, out.Data.WarmupDay)
	assert.Equal(t, 12, out.Data.WarmupSentToday)
	// Day 4 on the standard curve
	assert.Equal(t, 20, out.Data.TodayLimit)
	assert.False(t, out.Data.WarmupComplete)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetWarmupStatusInvalidID(t *testing.T) {
	mock, app := setupWarmupApp(t)

	status, resp := doJSON(t, app, "GET", "/warmup/abc", nil)
	assert.Equal(t, 400, status)
	assert.Contains(t, resp, ErrInvalidDomainID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
