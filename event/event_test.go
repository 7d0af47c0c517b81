package event

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/recblend/core"
	"github.com/rushteam/recblend/store"
)

func TestHTTPStore_RecentEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/get", r.URL.Path)
		assert.Equal(t, "42", r.URL.Query().Get("user_id"))
		assert.Equal(t, "3", r.URL.Query().Get("k"))
		_, _ = w.Write([]byte(`{"events": [9, 8, 7]}`))
	}))
	defer srv.Close()

	events, err := NewHTTPStore(srv.URL+"/", time.Second).RecentEvents(context.Background(), 42, 3)
	require.NoError(t, err)
	assert.Equal(t, []int64{9, 8, 7}, events)
}

func TestHTTPStore_TruncatesToK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"events": [1, 2, 3, 4, 5, 6, 7, 8]}`))
	}))
	defer srv.Close()

	events, err := NewHTTPStore(srv.URL, time.Second).RecentEvents(context.Background(), 1, 3)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, events)
}

func TestHTTPStore_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		malformed bool
	}{
		{"server error", http.StatusInternalServerError, `oops`, false},
		{"not json", http.StatusOK, `<html>`, true},
		{"missing events key", http.StatusOK, `{"items": []}`, true},
		{"wrong type", http.StatusOK, `{"events": "abc"}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewHTTPStore(srv.URL, time.Second).RecentEvents(context.Background(), 1, 3)
			require.Error(t, err)
			assert.True(t, core.IsUnavailable(err))
			assert.Equal(t, tt.malformed, core.IsMalformed(err))
		})
	}
}

func TestHTTPStore_EmptyEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"events": []}`))
	}))
	defer srv.Close()

	events, err := NewHTTPStore(srv.URL, time.Second).RecentEvents(context.Background(), 1, 3)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestHTTPStore_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewHTTPStore(url, time.Second).RecentEvents(context.Background(), 1, 3)
	assert.True(t, core.IsUnavailable(err))
	assert.False(t, core.IsMalformed(err))
}

func TestKVStore(t *testing.T) {
	ctx := context.Background()
	s := NewKVStore(store.NewMemoryStore(), "")

	base := time.Unix(1_700_000_000, 0)
	require.NoError(t, s.Put(ctx, 1, 100, base))
	require.NoError(t, s.Put(ctx, 1, 200, base.Add(time.Minute)))
	require.NoError(t, s.Put(ctx, 1, 300, base.Add(2*time.Minute)))
	require.NoError(t, s.Put(ctx, 1, 400, base.Add(3*time.Minute)))

	events, err := s.RecentEvents(ctx, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, []int64{400, 300, 200}, events)

	events, err = s.RecentEvents(ctx, 2, 3)
	require.NoError(t, err)
	assert.Empty(t, events)
}
