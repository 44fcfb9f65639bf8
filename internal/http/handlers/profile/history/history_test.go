package history

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/phone-cleaner/internal/http/response"
	"github.com/magabrotheeeer/phone-cleaner/internal/lib/sl"
	"github.com/magabrotheeeer/phone-cleaner/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) History(ctx context.Context) []models.CleanupRecord {
	args := m.Called(ctx)
	return args.Get(0).([]models.CleanupRecord)
}

func TestHistoryHandler(t *testing.T) {
	svc := new(MockService)
	svc.On("History", mock.Anything).Return([]models.CleanupRecord{{
		ID:           uuid.New(),
		Date:         time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Category:     models.CategoryDuplicatePhotos,
		ItemsDeleted: 12,
		SizeFreed:    4096,
	}})

	w := httptest.NewRecorder()
	New(sl.Discard(), svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/history", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, response.StatusOK, resp.Status)
	records := resp.Data.(map[string]any)["records"].([]any)
	require.Len(t, records, 1)
	assert.Equal(t, float64(12), records[0].(map[string]any)["itemsDeleted"])
	svc.AssertExpectations(t)
}
