package builders

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/recblend/config"
	"github.com/rushteam/recblend/core"
	"github.com/rushteam/recblend/pipeline"
)

func TestSupportedTypes(t *testing.T) {
	assert.Equal(t, []string{"filter", "rerank.topn"}, config.SupportedTypes())
}

func TestLoadPostNodes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "post.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
pipeline:
  name: blend_post
  nodes:
    - type: filter
      config:
        filters:
          - type: blacklist
            item_ids: [2, 5]
          - type: expr
            expr: 'item.id == 4'
    - type: rerank.topn
      config:
        n: 2
`), 0o600))

	nodes, err := config.LoadPostNodes(path)
	require.NoError(t, err)
	require.Len(t, nodes, 2)

	p := &pipeline.Pipeline{Nodes: nodes}
	out, err := p.Run(context.Background(), core.NewRecommendContext(1, 10, "blend"),
		core.NewItems([]int64{1, 2, 3, 4, 5, 6}, "offline"))
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, core.ItemIDs(out))
}

func TestLoadPostNodes_Empty(t *testing.T) {
	nodes, err := config.LoadPostNodes("")
	require.NoError(t, err)
	assert.Nil(t, nodes)
}

func TestLoadPostNodes_Invalid(t *testing.T) {
	tests := map[string]string{
		"unknown node":   "pipeline:\n  nodes:\n    - type: rank.lr\n",
		"unknown filter": "pipeline:\n  nodes:\n    - type: filter\n      config:\n        filters:\n          - type: exposed\n",
		"missing expr":   "pipeline:\n  nodes:\n    - type: filter\n      config:\n        filters:\n          - type: expr\n",
		"no filters":     "pipeline:\n  nodes:\n    - type: filter\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "post.yaml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
			_, err := config.LoadPostNodes(path)
			assert.Error(t, err)
		})
	}
}
