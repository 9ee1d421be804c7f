package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/together-dev/together/internal/apperrors"
)

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", apperrors.NotFound("Mission", 1), http.StatusNotFound, "not_found"},
		{"already exists", apperrors.AlreadyExists("Engagement", "volunteer_1_mission_2"), http.StatusConflict, "already_exists"},
		{"invalid state", apperrors.InvalidState("application already rejected"), http.StatusConflict, "invalid_state"},
		{"capacity exceeded", apperrors.CapacityExceeded("mission is at capacity"), http.StatusConflict, "capacity_exceeded"},
		{"permission denied", apperrors.PermissionDenied("not your mission"), http.StatusForbidden, "permission_denied"},
		{"validation", apperrors.Validation("capacity_min must not exceed capacity_max"), http.StatusBadRequest, "validation"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			ctx, _ := gin.CreateTestContext(recorder)

			respondError(ctx, tc.err)

			assert.Equal(t, tc.wantStatus, recorder.Code)

			var payload map[string]string
			require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
			assert.Equal(t, tc.wantCode, payload["code"])
			assert.Equal(t, tc.err.Error(), payload["error"])
		})
	}
}

func TestRespondErrorUnknown(t *testing.T) {
	gin.SetMode(gin.TestMode)

	recorder := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(recorder)

	respondError(ctx, errors.New("connection reset"))

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.NotContains(t, recorder.Body.String(), "connection reset")
}
