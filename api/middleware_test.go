package api

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/rushteam/recblend/metrics"
)

func TestAccessLog_UnmatchedRoutesShareLabel(t *testing.T) {
	router := NewRouter(newTestHandler(t, defaultSimilarity()))
	unmatched := metrics.HTTPRequests.WithLabelValues(routeUnmatched, "404")
	before := testutil.ToFloat64(unmatched)

	for i := range 3 {
		req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/scan/%d", i), nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code)
	}

	assert.Equal(t, before+3, testutil.ToFloat64(unmatched))
}

func TestRouteLabel(t *testing.T) {
	router := NewRouter(newTestHandler(t, defaultSimilarity()))
	health := metrics.HTTPRequests.WithLabelValues(RouteHealth, "200")
	before := testutil.ToFloat64(health)

	req := httptest.NewRequest(http.MethodGet, RouteHealth+"?verbose=1", nil)
	router.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, before+1, testutil.ToFloat64(health))
	assert.Equal(t, routeUnmatched, routeLabel(httptest.NewRequest(http.MethodGet, "/x", nil)))
}
