package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v9"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readyChecks(t *testing.T, h *HealthHandler) (int, map[string]string) {
	t.Helper()
	w := httptest.NewRecorder()
	h.Ready(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	var body struct {
		Data HealthStatus `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body.Data.Checks
}

func TestHealthHandler_ReadyWithoutDependencies(t *testing.T) {
	code, checks := readyChecks(t, NewHealthHandler(nil, nil, time.Second))

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "disabled", checks["database"])
	assert.Equal(t, "disabled", checks["redis"])
}

func TestHealthHandler_Ready(t *testing.T) {
	mockDB, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer mockDB.Close()
	db := sqlx.NewDb(mockDB, "postgres")
	rdb, redisMock := redismock.NewClientMock()

	dbMock.ExpectPing()
	redisMock.ExpectPing().SetVal("PONG")

	code, checks := readyChecks(t, NewHealthHandler(db, rdb, time.Second))

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", checks["database"])
	assert.Equal(t, "ok", checks["redis"])
	assert.NoError(t, dbMock.ExpectationsWereMet())
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestHealthHandler_NotReady(t *testing.T) {
	mockDB, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer mockDB.Close()
	db := sqlx.NewDb(mockDB, "postgres")
	rdb, redisMock := redismock.NewClientMock()

	dbMock.ExpectPing().WillReturnError(errors.New("connection refused"))
	redisMock.ExpectPing().SetVal("PONG")

	code, checks := readyChecks(t, NewHealthHandler(db, rdb, time.Second))

	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "failed", checks["database"])
	assert.Equal(t, "ok", checks["redis"])
}
