package controller

import (
	"encoding/json"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupUsageApp(t *testing.T) (sqlmock.Sqlmock, *fiber.App) {
	t.Helper()

	db, mock := newMockDB(t)
	uc := NewUsageController(db, discardLogger())

	app := newTestApp()
	app.Get("/usage", uc.GetUsageStats)
	return mock, app
}

func TestGetUsageStatsMissingWorkspace(t *testing.T) {
	mock, app := setupUsageApp(t)

	mock.ExpectQuery(`SELECT \* FROM "workspaces"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	status, resp := doJSON(t, app, "GET", "/usage", nil)
	assert.Equal(t, 404, status)
	assert.Contains(t, resp, "workspace not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUsageStatsCounters(t *testing.T) {
	mock, app := setupUsageApp(t)
	// The six counts run in parallel after the workspace read
	mock.MatchExpectationsInOrder(false)

	mock.ExpectQuery(`SELECT \* FROM "workspaces"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "plan_name", "is_active"}).
			AddRow(testWorkspaceID, "Acme", "growth", true))

	mock.ExpectQuery(`SELECT count\(\*\) FROM "email_sequences"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "sending_domains"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "inbox_messages"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(150))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "touchpoints"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(300))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "email_events" JOIN touchpoints`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(90))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "email_events" JOIN touchpoints`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(25))

	status, resp := doJSON(t, app, "GET", "/usage", nil)
	assert.Equal(t, 200, status)

	var out struct {
		Usage struct {
			WorkspaceID uint   `json:"workspace_id"`
			Plan        string `json:"plan"`
			Counters    struct {
				Sequences      int64 `json:"sequences"`
				SendingDomains int64 `json:"sending_domains"`
				SentThisMonth  int64 `json:"sent_this_month"`
				Touchpoints    int64 `json:"touchpoints"`
			} `json:"counters"`
		} `json:"usage"`
	}
	require.NoError(t, json.Unmarshal([]byte(resp), &out))
	assert.Equal(t, testWorkspaceID, out.Usage.WorkspaceID)
	assert.Equal(t, "growth", out.Usage.Plan)
	assert.Equal(t, int64(4), out.Usage.Counters.Sequences)
	assert.Equal(t, int64(2), out.Usage.Counters.SendingDomains)
	assert.Equal(t, int64(150), out.Usage.Counters.SentThisMonth)
	assert.Equal(t, int64(300), out.Usage.Counters.Touchpoints)
	assert.NoError(t, mock.ExpectationsWereMet())
}
