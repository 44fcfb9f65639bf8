package begin

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/phone-cleaner/internal/lib/sl"
	"github.com/magabrotheeeer/phone-cleaner/internal/models"
	"github.com/magabrotheeeer/phone-cleaner/internal/services/engine"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) BeginDeletion(ctx context.Context, req engine.DeletionRequest) (models.DeletionOutcome, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(models.DeletionOutcome), args.Error(1)
}

func TestBeginHandler(t *testing.T) {
	groupID := uuid.MustParse("8f14e45f-ceea-467f-a8c1-3a9a5e8f8b9c")
	batch := &models.DeletionBatch{
		ID:    uuid.MustParse("c9f0f895-fb98-4b91-9a4f-6e6e58ae3d21"),
		Items: []models.PhotoItem{{ID: "b"}},
	}

	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "batch reserved",
			body: `{"group_ids":["8f14e45f-ceea-467f-a8c1-3a9a5e8f8b9c"]}`,
			setupMock: func(m *MockService) {
				m.On("BeginDeletion", mock.Anything, engine.DeletionRequest{GroupIDs: []uuid.UUID{groupID}}).
					Return(models.DeletionOutcome{Batch: batch, Decision: models.Allow(1), Requested: 1}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   batch.ID.String(),
		},
		{
			name: "partial without consent requires upsell",
			body: `{}`,
			setupMock: func(m *MockService) {
				m.On("BeginDeletion", mock.Anything, engine.DeletionRequest{GroupIDs: []uuid.UUID{}}).
					Return(models.DeletionOutcome{Decision: models.Allow(5), Requested: 20, UpsellRequired: true}, nil)
			},
			expectedStatus: http.StatusPaymentRequired,
			expectedBody:   `"error":"upsell_required"`,
		},
		{
			name: "quota exhausted",
			body: `{"allow_partial":true}`,
			setupMock: func(m *MockService) {
				m.On("BeginDeletion", mock.Anything, engine.DeletionRequest{GroupIDs: []uuid.UUID{}, AllowPartial: true}).
					Return(models.DeletionOutcome{
						Decision: models.Deny(models.ReasonQuotaExhausted), Requested: 3, UpsellRequired: true,
					}, nil)
			},
			expectedStatus: http.StatusPaymentRequired,
			expectedBody:   `"error":"quota_exhausted"`,
		},
		{
			name: "unknown group",
			body: `{"group_ids":["8f14e45f-ceea-467f-a8c1-3a9a5e8f8b9c"]}`,
			setupMock: func(m *MockService) {
				m.On("BeginDeletion", mock.Anything, mock.Anything).
					Return(models.DeletionOutcome{}, fmt.Errorf("engine.BeginDeletion: %w", models.ErrUnknownGroup))
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   "duplicate group not found",
		},
		{
			name:           "invalid group id",
			body:           `{"group_ids":["nope"]}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   "can contain only uuid",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/deletions", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			New(sl.Discard(), svc).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
