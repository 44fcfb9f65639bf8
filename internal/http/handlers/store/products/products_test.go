package products

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

func (m *MockService) Products(ctx context.Context) ([]models.ProductInfo, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]models.ProductInfo)
	return list, args.Error(1)
}

func TestProductsHandler(t *testing.T) {
	tests := []struct {
		name           string
		list           []models.ProductInfo
		err            error
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "catalog",
			list:           []models.ProductInfo{{ID: models.ProductYearly, DisplayName: "Yearly", DisplayPrice: "$29.99"}},
			expectedStatus: http.StatusOK,
			expectedBody:   models.ProductYearly,
		},
		{
			name:           "store offline",
			err:            fmt.Errorf("engine.Products: %w", models.ErrNetworkUnavailable),
			expectedStatus: http.StatusBadGateway,
			expectedBody:   "could not fetch products",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			svc.On("Products", mock.Anything).Return(tt.list, tt.err)

			w := httptest.NewRecorder()
			New(sl.Discard(), svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
