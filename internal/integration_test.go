package internal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"parking-access-backend/config"
	"parking-access-backend/internal/access"
	"parking-access-backend/internal/api"
	"parking-access-backend/internal/model"
	"parking-access-backend/internal/store"
)

// newTestServer stands up the full router over an in-memory database, the
// same wiring main uses minus push notifications.
func newTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Vehicle{}, &model.AccessLog{}, &model.PushSubscription{}, &model.SubscriptionPlate{}))

	s := store.NewGormStore(db)
	cfg := &config.ServerConfig{
		Port:            8080,
		RateLimitPerSec: 1000,
		RateLimitBurst:  1000,
		CacheTTLSeconds: 60,
	}
	return api.NewRouter(cfg, s, access.NewEngine(s), nil, nil)
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func accessBody(plate, userID, accessType string, ts time.Time) map[string]any {
	return map[string]any{
		"vehiclePlate": plate,
		"userId":       userID,
		"accessType":   accessType,
		"timestamp":    ts,
	}
}

func TestFullEntryExitCycle(t *testing.T) {
	r := newTestServer(t)
	userID := uuid.NewString()
	now := time.Now().UTC()

	w := doJSON(t, r, http.MethodPost, "/api/access", accessBody("abc123", userID, "Entry", now.Add(-10*time.Minute)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodGet, "/api/access/vehicle/ABC123/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var status struct {
		IsInside      bool   `json:"isInside"`
		CurrentUserID string `json:"currentUserId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.True(t, status.IsInside)
	assert.Equal(t, userID, status.CurrentUserID)

	w = doJSON(t, r, http.MethodPost, "/api/access", accessBody("ABC123", userID, "Exit", now.Add(-time.Minute)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodGet, "/api/access/vehicle/abc123/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.False(t, status.IsInside)

	// Two successful attempts, two audit rows.
	w = doJSON(t, r, http.MethodGet, "/api/access/audit", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var logs []struct {
		Success    bool   `json:"success"`
		AccessType string `json:"accessType"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &logs))
	require.Len(t, logs, 2)
	assert.Equal(t, "Exit", logs[0].AccessType, "newest first")
	assert.True(t, logs[0].Success)
	assert.True(t, logs[1].Success)
}

func TestDeniedEntryIsAuditedWithVehicleReference(t *testing.T) {
	r := newTestServer(t)
	u1 := uuid.NewString()
	u2 := uuid.NewString()
	now := time.Now().UTC()

	w := doJSON(t, r, http.MethodPost, "/api/access", accessBody("XYZ9", u1, "Entry", now.Add(-5*time.Minute)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodPost, "/api/access", accessBody("xyz9", u2, "Entry", now.Add(-time.Minute)))
	require.Equal(t, http.StatusConflict, w.Code)
	var errBody struct {
		Code       string `json:"code"`
		StatusCode int    `json:"statusCode"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errBody))
	assert.Equal(t, "VEHICLE_ALREADY_INSIDE", errBody.Code)
	assert.Equal(t, http.StatusConflict, errBody.StatusCode)

	// The denial shows up in the audit trail pointing at the vehicle that
	// was already inside.
	w = doJSON(t, r, http.MethodGet, "/api/access/audit?plate=XYZ9", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var logs []struct {
		Success       bool    `json:"success"`
		UserID        string  `json:"userId"`
		FailureReason *string `json:"failureReason"`
		VehicleID     *string `json:"vehicleId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &logs))
	require.Len(t, logs, 2)

	denied := logs[0]
	assert.False(t, denied.Success)
	assert.Equal(t, u2, denied.UserID)
	require.NotNil(t, denied.FailureReason)
	require.NotNil(t, denied.VehicleID)
	assert.NotEmpty(t, *denied.VehicleID)
}

func TestOneOpenSessionPerUser(t *testing.T) {
	r := newTestServer(t)
	userID := uuid.NewString()
	now := time.Now().UTC()

	w := doJSON(t, r, http.MethodPost, "/api/access", accessBody("CAR1", userID, "Entry", now.Add(-3*time.Minute)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodPost, "/api/access", accessBody("CAR2", userID, "Entry", now.Add(-2*time.Minute)))
	require.Equal(t, http.StatusConflict, w.Code)
	var errBody struct {
		Code  string `json:"code"`
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errBody))
	assert.Equal(t, "USER_HAS_ACTIVE_VEHICLE", errBody.Code)
	assert.Contains(t, errBody.Error, "CAR1")

	// After exiting CAR1 the user may enter with CAR2.
	w = doJSON(t, r, http.MethodPost, "/api/access", accessBody("CAR1", userID, "Exit", now.Add(-time.Minute)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = doJSON(t, r, http.MethodPost, "/api/access", accessBody("CAR2", userID, "Entry", now))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// CAR2 never got a vehicle row from the denied attempt.
	w = doJSON(t, r, http.MethodGet, "/api/access/audit?plate=CAR2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var logs []struct {
		Success bool `json:"success"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &logs))
	require.Len(t, logs, 2)
}

func TestAuditListingIsCached(t *testing.T) {
	r := newTestServer(t)
	userID := uuid.NewString()
	now := time.Now().UTC()

	w := doJSON(t, r, http.MethodGet, "/api/access/audit", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())

	w = doJSON(t, r, http.MethodPost, "/api/access", accessBody("NEW1", userID, "Entry", now))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Within the TTL the cached empty listing is served.
	w = doJSON(t, r, http.MethodGet, "/api/access/audit", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())

	// A different URI bypasses the cached entry.
	w = doJSON(t, r, http.MethodGet, "/api/access/audit?take=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var logs []json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &logs))
	assert.Len(t, logs, 1)

	// Vehicle status is never cached.
	w = doJSON(t, r, http.MethodGet, "/api/access/vehicle/NEW1/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestValidationErrorsLeaveNoTrace(t *testing.T) {
	r := newTestServer(t)
	userID := uuid.NewString()

	w := doJSON(t, r, http.MethodPost, "/api/access", accessBody("BAD PLATE!", userID, "Entry", time.Now().UTC()))
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/access", accessBody("ABC123", userID, "Teleport", time.Now().UTC()))
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/access/audit?take=25", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}
