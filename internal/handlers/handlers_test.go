// Package handlers provides tests for the HTTP layer: the error taxonomy to
// status code mapping and a few end-to-end routes over a mocked pool.
package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avissapr/groupmapper/internal/apperrors"
	"github.com/avissapr/groupmapper/internal/database"
	"github.com/avissapr/groupmapper/internal/logging"
	"github.com/avissapr/groupmapper/internal/services"
)

func quietLogger() *logging.Logger {
	l := logging.NewLogger()
	l.SetOutput(log.New(io.Discard, "", 0))
	return l
}

// TestRespondError_StatusMapping verifies each error kind lands on its HTTP
// status: validation 400, not found 404, duplicate and constraint 409,
// store 500.
func TestRespondError_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		kind   string
	}{
		{"Validation", apperrors.NewValidation("group_name", "is required"),
			fiber.StatusBadRequest, apperrors.KindValidation},
		{"NotFound", &apperrors.NotFoundError{Entity: "group", ID: 9},
			fiber.StatusNotFound, apperrors.KindNotFound},
		{"Duplicate", &apperrors.DuplicateError{Entity: "group", Detail: "name taken"},
			fiber.StatusConflict, apperrors.KindDuplicate},
		{"Constraint", &apperrors.ConstraintError{Reason: "mappings reference it", Count: 2},
			fiber.StatusConflict, apperrors.KindConstraint},
		{"Store", apperrors.NewStore("insert group", "group", 0, pgx.ErrTxClosed),
			fiber.StatusInternalServerError, apperrors.KindStore},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/boom", func(c *fiber.Ctx) error {
				return respondError(c, quietLogger(), tt.err)
			})

			resp, err := app.Test(httptest.NewRequest("GET", "/boom", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			var body errorBody
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.False(t, body.Success)
			assert.Equal(t, tt.kind, body.Kind)
			assert.NotEmpty(t, body.Error)
		})
	}
}

// newTestApp wires the group routes over a pgxmock pool, mirroring the
// production route table.
func newTestApp(t *testing.T) (*fiber.App, pgxmock.PgxPoolIface) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)

	oldDB := database.DB
	database.DB = mock
	t.Cleanup(func() {
		database.DB = oldDB
		mock.Close()
	})

	logger := quietLogger()
	groupHandler := NewGroupHandler(services.NewGroupService(nil, logger), logger)

	app := fiber.New()
	app.Post("/api/groups", groupHandler.Create)
	app.Get("/api/groups/:id", groupHandler.Get)

	return app, mock
}

// TestGroupHandler_Get_NotFound verifies an unknown id returns 404 with the
// taxonomy kind in the body.
func TestGroupHandler_Get_NotFound(t *testing.T) {
	app, mock := newTestApp(t)

	mock.ExpectQuery("SELECT (.+) FROM user_groups WHERE id").
		WithArgs(999).
		WillReturnError(pgx.ErrNoRows)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/groups/999", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	var body errorBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, apperrors.KindNotFound, body.Kind)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestGroupHandler_Get_BadID verifies a non-numeric id is a 400, not a
// routing miss.
func TestGroupHandler_Get_BadID(t *testing.T) {
	app, _ := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/groups/abc", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

// TestGroupHandler_Create verifies the created envelope and the 201 status.
func TestGroupHandler_Create(t *testing.T) {
	app, mock := newTestApp(t)
	testTime := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("Engineering", 0).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	mock.ExpectQuery("INSERT INTO user_groups").
		WithArgs("Engineering", "Engineering department", true, "admin").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_on", "updated_on"}).
			AddRow(7, testTime, testTime))

	payload := `{"group_name":"Engineering","description":"Engineering department","created_by":"admin"}`
	req := httptest.NewRequest("POST", "/api/groups", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var body struct {
		Success bool `json:"success"`
		Group   struct {
			ID   int    `json:"id"`
			Name string `json:"group_name"`
		} `json:"group"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Success)
	assert.Equal(t, 7, body.Group.ID)
	assert.Equal(t, "Engineering", body.Group.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestGroupHandler_Create_BadJSON verifies malformed bodies are a 400.
func TestGroupHandler_Create_BadJSON(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest("POST", "/api/groups", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
