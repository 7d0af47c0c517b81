package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/recblend/core"
	"github.com/rushteam/recblend/filter"
	"github.com/rushteam/recblend/pipeline"
	"github.com/rushteam/recblend/recall"
	"github.com/rushteam/recblend/store"
)

type fakeEvents map[int64][]int64

func (f fakeEvents) RecentEvents(_ context.Context, userID int64, k int) ([]int64, error) {
	ev := f[userID]
	if len(ev) > k {
		ev = ev[:k]
	}
	return ev, nil
}

type fakeSimilarity struct {
	items map[int64][]core.SimilarItem
	err   error
	block bool
}

func (f *fakeSimilarity) SimilarItems(ctx context.Context, itemID int64, _ int) ([]core.SimilarItem, error) {
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.items[itemID], nil
}

func newTestHandler(t *testing.T, sim *fakeSimilarity, post ...pipeline.Node) *Handler {
	t.Helper()
	recs := store.NewRecsStore(nil)
	require.NoError(t, recs.LoadRows(store.NamespacePersonal, []store.Row{
		{UserID: 1, ItemID: 12, Rank: 3},
		{UserID: 1, ItemID: 10, Rank: 1},
		{UserID: 1, ItemID: 11, Rank: 2},
	}))
	require.NoError(t, recs.LoadRows(store.NamespaceDefault, []store.Row{
		{ItemID: 50, Rank: 1},
		{ItemID: 51, Rank: 2},
	}))

	online := &recall.Online{
		Events:     fakeEvents{1: {100}},
		Similarity: sim,
	}
	offline := &recall.Offline{Store: recs}
	return NewHandler(offline, online, post, 200*time.Millisecond)
}

func defaultSimilarity() *fakeSimilarity {
	return &fakeSimilarity{items: map[int64][]core.SimilarItem{
		100: {{ItemID: 21, Score: 0.5}, {ItemID: 20, Score: 0.9}},
	}}
}

func do(t *testing.T, h http.Handler, method, target string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return rec, body
}

func recsOf(t *testing.T, body map[string]any) []int64 {
	t.Helper()
	raw, ok := body["recs"].([]any)
	require.True(t, ok, "body has no recs: %v", body)
	out := make([]int64, 0, len(raw))
	for _, v := range raw {
		out = append(out, int64(v.(float64)))
	}
	return out
}

func errorCode(body map[string]any) string {
	e, _ := body["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

func TestRecommendEndpoints(t *testing.T) {
	router := NewRouter(newTestHandler(t, defaultSimilarity()))

	tests := []struct {
		name   string
		target string
		want   []int64
	}{
		{"offline personal", "/recommendations_offline?user_id=1&k=2", []int64{10, 11}},
		{"offline default k", "/recommendations_offline?user_id=1", []int64{10, 11, 12}},
		{"offline fallback", "/recommendations_offline?user_id=2&k=5", []int64{50, 51}},
		{"online", "/recommendations_online?user_id=1&k=5", []int64{20, 21}},
		{"online no events", "/recommendations_online?user_id=2&k=5", []int64{}},
		{"blended", "/recommendations?user_id=1&k=5", []int64{20, 10, 21, 11, 12}},
		{"blended truncated", "/recommendations?user_id=1&k=3", []int64{20, 10, 21}},
		{"blended offline only", "/recommendations?user_id=2&k=5", []int64{50, 51}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := do(t, router, http.MethodPost, tt.target)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, tt.want, recsOf(t, body))
			assert.NotEmpty(t, rec.Header().Get(headerRequestID))
		})
	}
}

func TestRecommendEndpoints_InvalidInput(t *testing.T) {
	router := NewRouter(newTestHandler(t, defaultSimilarity()))

	for _, target := range []string{
		"/recommendations_offline",
		"/recommendations_offline?user_id=abc",
		"/recommendations_online?user_id=1&k=0",
		"/recommendations?user_id=1&k=-3",
		"/recommendations?user_id=1&k=x",
	} {
		t.Run(target, func(t *testing.T) {
			rec, body := do(t, router, http.MethodPost, target)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, core.ErrorCodeInvalidInput, errorCode(body))
		})
	}
}

func TestRecommendEndpoints_SimilarityFailure(t *testing.T) {
	sim := &fakeSimilarity{err: errors.New("connection refused")}
	router := NewRouter(newTestHandler(t, sim))

	for _, target := range []string{
		"/recommendations_online?user_id=1&k=5",
		"/recommendations?user_id=1&k=5",
	} {
		rec, body := do(t, router, http.MethodPost, target)
		assert.Equal(t, http.StatusBadGateway, rec.Code, target)
		assert.Equal(t, core.ErrorCodeUnavailable, errorCode(body), target)
	}

	// 离线接口不依赖相似度服务
	rec, _ := do(t, router, http.MethodPost, "/recommendations_offline?user_id=1&k=5")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRecommendEndpoints_MalformedUpstream(t *testing.T) {
	sim := &fakeSimilarity{err: core.NewMalformedError(core.ModuleSimilarity, "length mismatch", nil)}
	router := NewRouter(newTestHandler(t, sim))

	rec, body := do(t, router, http.MethodPost, "/recommendations?user_id=1&k=5")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, core.ErrorCodeMalformedResponse, errorCode(body))
}

func TestRecommendEndpoints_Deadline(t *testing.T) {
	h := newTestHandler(t, &fakeSimilarity{block: true})
	h.RequestTimeout = 20 * time.Millisecond
	router := NewRouter(h)

	rec, body := do(t, router, http.MethodPost, "/recommendations_online?user_id=1&k=5")
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Equal(t, codeDeadlineExceeded, errorCode(body))
}

func TestBlended_PostNodes(t *testing.T) {
	post := &filter.FilterNode{Filters: []filter.Filter{filter.NewBlacklistFilter([]int64{10, 21})}}
	router := NewRouter(newTestHandler(t, defaultSimilarity(), post))

	rec, body := do(t, router, http.MethodPost, "/recommendations?user_id=1&k=5")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int64{20, 11, 12}, recsOf(t, body))
}

func TestHealthAndMethods(t *testing.T) {
	router := NewRouter(newTestHandler(t, defaultSimilarity()))

	rec, body := do(t, router, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])

	req := httptest.NewRequest(http.MethodGet, "/recommendations?user_id=1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
