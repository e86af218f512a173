package list

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/plan-gate/internal/http/middlewarectx"
	"github.com/magabrotheeeer/plan-gate/internal/lib/featuregate"
	"github.com/magabrotheeeer/plan-gate/internal/models"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) GetPlan(ctx context.Context, userUID string) (*models.PlanState, error) {
	args := m.Called(ctx, userUID)
	state, _ := args.Get(0).(*models.PlanState)
	return state, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newRequest(userUID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/features", nil)
	if userUID != "" {
		ctx := context.WithValue(req.Context(), middlewarectx.UserUID, userUID)
		req = req.WithContext(ctx)
	}
	return req
}

func TestListHandler_FeaturesFollowPlan(t *testing.T) {
	gate, err := featuregate.Default()
	require.NoError(t, err)

	tests := []struct {
		name         string
		plan         models.PlanType
		wantFeatures int
	}{
		{name: "free plan unlocks nothing", plan: models.PlanFree, wantFeatures: 0},
		{name: "basic plan", plan: models.PlanBasic, wantFeatures: 3},
		{name: "normal plan", plan: models.PlanNormal, wantFeatures: 4},
		{name: "pro plan unlocks everything", plan: models.PlanPro, wantFeatures: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			serviceMock := new(ServiceMock)
			serviceMock.On("GetPlan", mock.Anything, "uid-1").
				Return(&models.PlanState{CurrentPlan: tt.plan}, nil).Once()

			handler := New(newNoopLogger(), serviceMock, gate)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, newRequest("uid-1"))

			assert.Equal(t, http.StatusOK, rec.Code)

			var resp map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			data := resp["data"].(map[string]any)
			assert.Equal(t, string(tt.plan), data["currentPlan"])

			features, _ := data["features"].([]any)
			assert.Len(t, features, tt.wantFeatures)
		})
	}
}

func TestListHandler_Unauthenticated(t *testing.T) {
	gate, err := featuregate.Default()
	require.NoError(t, err)

	handler := New(newNoopLogger(), new(ServiceMock), gate)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, newRequest(""))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
