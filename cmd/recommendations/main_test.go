package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/recblend/config"
	"github.com/rushteam/recblend/store"
)

func TestOfflineSources(t *testing.T) {
	tests := []struct {
		name     string
		personal string
		def      string
		want     []string
	}{
		{"both", "p.parquet", "d.parquet", []string{store.NamespacePersonal, store.NamespaceDefault}},
		{"default only", "", "d.parquet", []string{store.NamespaceDefault}},
		{"none", "", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultService()
			cfg.Offline.PersonalPath = tt.personal
			cfg.Offline.DefaultPath = tt.def

			sources, err := offlineSources(cfg)
			require.NoError(t, err)
			var got []string
			for _, src := range sources {
				got = append(got, src.namespace)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewOfflineStore_RedisWithoutPathsIsExternallySeeded(t *testing.T) {
	cfg := config.DefaultService()
	cfg.Offline.Backend = "redis"
	cfg.Offline.PersonalPath = ""
	cfg.Offline.DefaultPath = ""

	kv := store.NewMemoryStore()
	require.NoError(t, store.NewKVRecsStore(kv, "").Seed(context.Background(), store.NamespaceDefault,
		[]store.Row{{ItemID: 5, Rank: 1}}))

	s, err := newOfflineStore(context.Background(), cfg, kv)
	require.NoError(t, err)
	got, err := s.Get(context.Background(), 1, 3)
	require.NoError(t, err)
	assert.Equal(t, []int64{5}, got)
}
