package restore

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/phone-cleaner/internal/lib/sl"
	"github.com/magabrotheeeer/phone-cleaner/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Restore(ctx context.Context) (models.UserProfile, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.UserProfile), args.Error(1)
}

func TestRestoreHandler(t *testing.T) {
	tests := []struct {
		name           string
		profile        models.UserProfile
		err            error
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "restored premium",
			profile:        models.UserProfile{SubscriptionStatus: models.StatusPremium},
			expectedStatus: http.StatusOK,
			expectedBody:   `"subscriptionStatus":"premium"`,
		},
		{
			name:           "store failed",
			profile:        models.UserProfile{SubscriptionStatus: models.StatusFree},
			err:            fmt.Errorf("engine.Restore: %w", models.ErrStoreFailed),
			expectedStatus: http.StatusBadGateway,
			expectedBody:   `"subscriptionStatus":"free"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			svc.On("Restore", mock.Anything).Return(tt.profile, tt.err)

			w := httptest.NewRecorder()
			New(sl.Discard(), svc).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/restore", nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
