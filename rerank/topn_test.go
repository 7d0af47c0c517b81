package rerank

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/recblend/core"
)

func TestTopNNode(t *testing.T) {
	in := core.NewItems([]int64{1, 2, 3, 4, 5}, "offline")

	tests := []struct {
		name string
		n    int
		k    int
		want []int64
	}{
		{"n smaller than k", 2, 4, []int64{1, 2}},
		{"k smaller than n", 4, 3, []int64{1, 2, 3}},
		{"n unset uses k", 0, 2, []int64{1, 2}},
		{"longer than input", 10, 10, []int64{1, 2, 3, 4, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := &TopNNode{N: tt.n}
			out, err := node.Process(context.Background(), core.NewRecommendContext(1, tt.k, ""), in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, core.ItemIDs(out))
		})
	}
}
