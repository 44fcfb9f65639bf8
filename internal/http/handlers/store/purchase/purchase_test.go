package purchase

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/phone-cleaner/internal/lib/sl"
	"github.com/magabrotheeeer/phone-cleaner/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Purchase(ctx context.Context, productID string) models.PurchaseResult {
	args := m.Called(ctx, productID)
	return args.Get(0).(models.PurchaseResult)
}

func TestPurchaseHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		result         *models.PurchaseResult
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "success",
			body: `{"product_id":"com.cleaner.subscription.yearly"}`,
			result: &models.PurchaseResult{
				Outcome: models.PurchaseSuccess, ProductID: models.ProductYearly, Status: models.StatusPremium,
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"subscription_status":"premium"`,
		},
		{
			name:           "pending",
			body:           `{"product_id":"com.cleaner.subscription.yearly"}`,
			result:         &models.PurchaseResult{Outcome: models.PurchasePending, ProductID: models.ProductYearly},
			expectedStatus: http.StatusAccepted,
			expectedBody:   `"outcome":"pending"`,
		},
		{
			name:           "cancelled",
			body:           `{"product_id":"com.cleaner.subscription.yearly"}`,
			result:         &models.PurchaseResult{Outcome: models.PurchaseCancelled, ProductID: models.ProductYearly},
			expectedStatus: http.StatusConflict,
			expectedBody:   `"error":"cancelled"`,
		},
		{
			name: "network failure",
			body: `{"product_id":"com.cleaner.subscription.yearly"}`,
			result: &models.PurchaseResult{
				Outcome: models.PurchaseFailed, Failure: models.FailureNetwork, ProductID: models.ProductYearly,
			},
			expectedStatus: http.StatusBadGateway,
			expectedBody:   `"failure":"network"`,
		},
		{
			name: "verification failure",
			body: `{"product_id":"com.cleaner.subscription.yearly"}`,
			result: &models.PurchaseResult{
				Outcome: models.PurchaseFailed, Failure: models.FailureVerification, ProductID: models.ProductYearly,
			},
			expectedStatus: http.StatusForbidden,
			expectedBody:   `"failure":"verification"`,
		},
		{
			name:           "missing product",
			body:           `{}`,
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   "is a required field",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			if tt.result != nil {
				svc.On("Purchase", mock.Anything, tt.result.ProductID).Return(*tt.result)
			}

			req := httptest.NewRequest(http.MethodPost, "/api/v1/purchase", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			New(sl.Discard(), svc).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
