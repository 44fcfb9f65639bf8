package cleanerd

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/phone-cleaner/internal/config"
	"github.com/magabrotheeeer/phone-cleaner/internal/http/response"
	"github.com/magabrotheeeer/phone-cleaner/internal/lib/apitoken"
	"github.com/magabrotheeeer/phone-cleaner/internal/lib/jws"
	"github.com/magabrotheeeer/phone-cleaner/internal/lib/sl"
	"github.com/magabrotheeeer/phone-cleaner/internal/metrics"
	"github.com/magabrotheeeer/phone-cleaner/internal/models"
	"github.com/magabrotheeeer/phone-cleaner/internal/services/authorizer"
	"github.com/magabrotheeeer/phone-cleaner/internal/services/duplicates"
	"github.com/magabrotheeeer/phone-cleaner/internal/services/engine"
	"github.com/magabrotheeeer/phone-cleaner/internal/services/entitlement"
	"github.com/magabrotheeeer/phone-cleaner/internal/services/profile"
	"github.com/magabrotheeeer/phone-cleaner/internal/services/quota"
	"github.com/magabrotheeeer/phone-cleaner/internal/services/subscription"
	"github.com/magabrotheeeer/phone-cleaner/internal/storage/memory"
	"github.com/magabrotheeeer/phone-cleaner/internal/storekit"
)

const testToken = "local-ui-token"

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	log := sl.Discard()

	store := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"signed_transactions":[]}`))
	}))
	t.Cleanup(store.Close)

	client := storekit.NewClient(store.URL, "", time.Second)
	verifier := entitlement.NewVerifier(jws.NewParser(nil), models.DefaultProductIDs())
	m := metrics.New(prometheus.NewRegistry())
	tracker := quota.NewTracker(nil, time.UTC)
	selector := duplicates.NewSelector(log)

	eng := engine.New(engine.Config{TrialDuration: 72 * time.Hour, StoreTimeout: time.Second}, engine.Deps{
		Profiles:     profile.NewStore(memory.New(), log),
		Entitlements: entitlement.NewService(client, verifier, time.Second, tracker.Now, m, log),
		Store:        client,
		Verifier:     verifier,
		Selector:     selector,
		Tracker:      tracker,
		Authorizer:   authorizer.New(tracker),
		Machine:      subscription.NewMachine(log),
		Metrics:      m,
		Log:          log,
	})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		<-eng.Done()
	})
	go eng.Run(ctx)
	<-eng.Ready()

	hash, err := apitoken.Hash(testToken)
	require.NoError(t, err)

	r := chi.NewRouter()
	RegisterRoutes(r, log, config.API{TokenHash: hash}, eng, selector)
	return r
}

func call(t *testing.T, h http.Handler, method, path, body string) (int, response.Response) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+testToken)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var resp response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w.Code, resp
}

func TestRoutes_RequireToken(t *testing.T) {
	h := newTestRouter(t)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRoutes_DeletionFlow(t *testing.T) {
	h := newTestRouter(t)

	code, resp := call(t, h, http.MethodPost, "/api/v1/groups",
		`{"groups":[{"members":[{"id":"a","file_size":10},{"id":"b","file_size":20},{"id":"c","file_size":30}],"keep_index":0}]}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), resp.Data.(map[string]any)["loaded"])
	groupID := resp.Data.(map[string]any)["groups"].([]any)[0].(map[string]any)["id"].(string)

	code, resp = call(t, h, http.MethodPost, "/api/v1/deletions", `{}`)
	require.Equal(t, http.StatusOK, code)
	batch := resp.Data.(map[string]any)["batch"].(map[string]any)
	batchID := batch["id"].(string)
	assert.Len(t, batch["items"], 2)

	code, _ = call(t, h, http.MethodPut, "/api/v1/groups/"+groupID+"/keeper", `{"index":1}`)
	assert.Equal(t, http.StatusConflict, code)
	code, _ = call(t, h, http.MethodPost, "/api/v1/groups", `{"groups":[{"members":[{"id":"x"},{"id":"y"}]}]}`)
	assert.Equal(t, http.StatusConflict, code)

	code, resp = call(t, h, http.MethodPost, "/api/v1/deletions/"+batchID+"/complete", `{"deleted_ids":["b","c"]}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(2), resp.Data.(map[string]any)["deleted"])
	assert.Equal(t, float64(50), resp.Data.(map[string]any)["size_freed"])

	code, resp = call(t, h, http.MethodGet, "/api/v1/profile", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(48), resp.Data.(map[string]any)["remaining"])

	code, resp = call(t, h, http.MethodGet, "/api/v1/history", "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, resp.Data.(map[string]any)["records"], 1)

	code, _ = call(t, h, http.MethodPost, "/api/v1/deletions/"+batchID+"/complete", `{"deleted_ids":["b"]}`)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestRoutes_TrialThenRefresh(t *testing.T) {
	h := newTestRouter(t)

	code, resp := call(t, h, http.MethodPost, "/api/v1/trial", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "trial", resp.Data.(map[string]any)["subscriptionStatus"])

	code, resp = call(t, h, http.MethodPost, "/api/v1/refresh", `{"trigger":"foreground"}`)
	require.Equal(t, http.StatusOK, code)
	p := resp.Data.(map[string]any)["profile"].(map[string]any)
	assert.Equal(t, "trial", p["subscriptionStatus"])

	code, _ = call(t, h, http.MethodPost, "/api/v1/trial", "")
	assert.Equal(t, http.StatusConflict, code)

	code, resp = call(t, h, http.MethodPost, "/api/v1/authorize", `{"count":500}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, resp.Data.(map[string]any)["partial"])
}
