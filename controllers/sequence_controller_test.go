package controller

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSequenceApp(t *testing.T) (sqlmock.Sqlmock, *fiber.App) {
	t.Helper()

	db, mock := newMockDB(t)
	sc := NewSequenceController(db, discardLogger())

	app := newTestApp()
	app.Get("/sequences/:id", sc.GetSequence)
	app.Patch("/sequences/:id", sc.UpdateSequence)
	app.Delete("/sequences/:id", sc.DeleteSequence)
	app.Post("/sequences/:id/approve", sc.ApproveSequence)
	app.Post("/sequences/reject-bulk", sc.RejectBulk)
	return mock, app
}

func doJSON(t *testing.T, app *fiber.App, method, target string, body []byte) (int, string) {
	t.Helper()

	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(b)
}

func TestGetSequenceNotFound(t *testing.T) {
	mock, app := setupSequenceApp(t)

	mock.ExpectQuery(`SELECT \* FROM "email_sequences"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	status, _ := doJSON(t, app, "GET", "/sequences/7", nil)
	assert.Equal(t, 404, status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateSequenceAllowList(t *testing.T) {
	mock, app := setupSequenceApp(t)

	// Only subject_1 survives the allow-list; the injected columns must not
	// reach the UPDATE.
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "email_sequences" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT \* FROM "email_sequences"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "workspace_id", "name", "subject1", "status"}).
			AddRow(7, testWorkspaceID, "Intro outreach", "Quick question", "pending_review"))
	mock.ExpectCommit()

	body, _ := json.Marshal(map[string]interface{}{
		"subject_1":    "Quick question",
		"workspace_id": 999,
		"id":           1,
		"bogus":        "nope",
	})
	status, resp := doJSON(t, app, "PATCH", "/sequences/7", body)
	assert.Equal(t, 200, status)

	var out struct {
		Sequence struct {
			Subject1 string `json:"subject_1"`
		} `json:"sequence"`
	}
	require.NoError(t, json.Unmarshal([]byte(resp), &out))
	assert.Equal(t, "Quick question", out.Sequence.Subject1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateSequenceNoRecognizedFields(t *testing.T) {
	mock, app := setupSequenceApp(t)

	body, _ := json.Marshal(map[string]interface{}{
		"bogus":      "x",
		"created_at": "2020-01-01",
	})
	status, resp := doJSON(t, app, "PATCH", "/sequences/7", body)
	assert.Equal(t, 400, status)
	assert.Contains(t, resp, ErrNoUpdatableFields)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateSequenceRejectsUnknownStatus(t *testing.T) {
	mock, app := setupSequenceApp(t)

	body, _ := json.Marshal(map[string]interface{}{"status": "shipped"})
	status, _ := doJSON(t, app, "PATCH", "/sequences/7", body)
	assert.Equal(t, 400, status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateSequenceMissingRow(t *testing.T) {
	mock, app := setupSequenceApp(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "email_sequences" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	body, _ := json.Marshal(map[string]interface{}{"name": "renamed"})
	status, _ := doJSON(t, app, "PATCH", "/sequences/99", body)
	assert.Equal(t, 404, status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteSequenceIdempotent(t *testing.T) {
	mock, app := setupSequenceApp(t)

	// Soft delete touching zero rows is still success
	mock.ExpectExec(`UPDATE "email_sequences" SET "deleted_at"`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	status, resp := doJSON(t, app, "DELETE", "/sequences/7", nil)
	assert.Equal(t, 200, status)
	assert.Contains(t, resp, `"success":true`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApproveSequence(t *testing.T) {
	mock, app := setupSequenceApp(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "email_sequences" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT \* FROM "email_sequences"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "workspace_id", "status", "approved1", "approved5"}).
			AddRow(7, testWorkspaceID, "approved", true, true))
	mock.ExpectCommit()

	status, resp := doJSON(t, app, "POST", "/sequences/7/approve", nil)
	assert.Equal(t, 200, status)
	assert.Contains(t, resp, `"status":"approved"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApproveSequenceNotFound(t *testing.T) {
	mock, app := setupSequenceApp(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "email_sequences" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	status, _ := doJSON(t, app, "POST", "/sequences/404/approve", nil)
	assert.Equal(t, 404, status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRejectBulkEmptyList(t *testing.T) {
	mock, app := setupSequenceApp(t)

	status, resp := doJSON(t, app, "POST", "/sequences/reject-bulk", []byte(`{"ids":[]}`))
	assert.Equal(t, 400, status)
	assert.Contains(t, resp, ErrInvalidIDList)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRejectBulkIgnoresMissingIDs(t *testing.T) {
	mock, app := setupSequenceApp(t)

	// Three requested, only two exist
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT "id" FROM "email_sequences"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(3))
	mock.ExpectExec(`UPDATE "email_sequences" SET`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	status, resp := doJSON(t, app, "POST", "/sequences/reject-bulk", []byte(`{"ids":[1,3,999]}`))
	assert.Equal(t, 200, status)

	var out struct {
		Success  bool   `json:"success"`
		Rejected int    `json:"rejected"`
		IDs      []uint `json:"ids"`
	}
	require.NoError(t, json.Unmarshal([]byte(resp), &out))
	assert.True(t, out.Success)
	assert.Equal(t, 2, out.Rejected)
	assert.Equal(t, []uint{1, 3}, out.IDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRejectBulkNoneExist(t *testing.T) {
	mock, app := setupSequenceApp(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT "id" FROM "email_sequences"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectCommit()

	status, resp := doJSON(t, app, "POST", "/sequences/reject-bulk", []byte(`{"ids":[999]}`))
	assert.Equal(t, 200, status)
	assert.Contains(t, resp, `"rejected":0`)
	assert.Contains(t, resp, `"ids":[]`)
	assert.NoError(t, mock.ExpectationsWereMet())
}
