package checkoutsuccess

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/plan-gate/internal/http/middlewarectx"
	"github.com/magabrotheeeer/plan-gate/internal/models"
	services "github.com/magabrotheeeer/plan-gate/internal/services/payment"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Confirm(ctx context.Context, userUID, sessionID string) (*models.PlanState, error) {
	args := m.Called(ctx, userUID, sessionID)
	state, _ := args.Get(0).(*models.PlanState)
	return state, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newRequest(userUID, sessionID string) *http.Request {
	target := "/payment/success"
	if sessionID != "" {
		target += "?session_id=" + sessionID
	}
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if userUID != "" {
		ctx := context.WithValue(req.Context(), middlewarectx.UserUID, userUID)
		req = req.WithContext(ctx)
	}
	return req
}

func TestCheckoutSuccessHandler_AppliesPlan(t *testing.T) {
	expiry := time.Now().UTC().Add(30 * 24 * time.Hour)
	serviceMock := new(ServiceMock)
	serviceMock.On("Confirm", mock.Anything, "uid-1", "cs_1").
		Return(&models.PlanState{CurrentPlan: models.PlanPro, PlanExpiry: &expiry}, nil).Once()

	handler := New(newNoopLogger(), serviceMock)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, newRequest("uid-1", "cs_1"))

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "OK", resp["status"])
	data := resp["data"].(map[string]any)
	assert.Equal(t, "plan activated", data["message"])
	assert.Equal(t, "pro", data["currentPlan"])
	serviceMock.AssertExpectations(t)
}

func TestCheckoutSuccessHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name           string
		userUID        string
		sessionID      string
		mockErr        error
		wantStatusCode int
		wantError      string
	}{
		{
			name:           "missing session id",
			userUID:        "uid-1",
			mockErr:        services.ErrMissingSession,
			wantStatusCode: http.StatusBadRequest,
			wantError:      "missing session_id",
		},
		{
			name:           "unauthenticated",
			sessionID:      "cs_1",
			mockErr:        services.ErrUnauthenticated,
			wantStatusCode: http.StatusUnauthorized,
			wantError:      "authentication required",
		},
		{
			name:           "invalid plan metadata",
			userUID:        "uid-1",
			sessionID:      "cs_1",
			mockErr:        services.ErrInvalidPlanMetadata,
			wantStatusCode: http.StatusBadRequest,
			wantError:      "invalid session metadata",
		},
		{
			name:           "payment incomplete",
			userUID:        "uid-1",
			sessionID:      "cs_1",
			mockErr:        services.ErrPaymentIncomplete,
			wantStatusCode: http.StatusBadRequest,
			wantError:      "payment not completed",
		},
		{
			name:           "ownership mismatch",
			userUID:        "uid-1",
			sessionID:      "cs_1",
			mockErr:        services.ErrOwnershipMismatch,
			wantStatusCode: http.StatusForbidden,
			wantError:      "access denied",
		},
		{
			name:           "provider unavailable",
			userUID:        "uid-1",
			sessionID:      "cs_1",
			mockErr:        services.ErrProviderUnavailable,
			wantStatusCode: http.StatusInternalServerError,
			wantError:      "payment provider error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			serviceMock := new(ServiceMock)
			serviceMock.On("Confirm", mock.Anything, tt.userUID, tt.sessionID).
				Return(nil, tt.mockErr).Once()

			handler := New(newNoopLogger(), serviceMock)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, newRequest(tt.userUID, tt.sessionID))

			assert.Equal(t, tt.wantStatusCode, rec.Code)

			var resp map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "Error", resp["status"])
			assert.Equal(t, tt.wantError, resp["error"])
		})
	}
}
