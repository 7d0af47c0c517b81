package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/recblend/core"
)

type appendNode struct {
	name string
	id   int64
	err  error
}

func (n *appendNode) Name() string { return n.name }
func (n *appendNode) Kind() Kind   { return KindPostProcess }
func (n *appendNode) Process(_ context.Context, _ *core.RecommendContext, items []*core.Item) ([]*core.Item, error) {
	if n.err != nil {
		return nil, n.err
	}
	return append(items, core.NewItem(n.id)), nil
}

func TestPipeline_Run(t *testing.T) {
	base := &Pipeline{Nodes: []Node{&appendNode{name: "a", id: 1}}}
	p := base.Then(&appendNode{name: "b", id: 2})

	out, err := p.Run(context.Background(), core.NewRecommendContext(1, 5, ""), nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, core.ItemIDs(out))
	assert.Len(t, base.Nodes, 1, "Then must not modify the receiver")
}

func TestPipeline_RunError(t *testing.T) {
	boom := errors.New("boom")
	p := &Pipeline{Nodes: []Node{&appendNode{name: "ok", id: 1}, &appendNode{name: "bad", err: boom}}}

	_, err := p.Run(context.Background(), core.NewRecommendContext(1, 5, ""), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "bad")
}

func TestConfig_BuildNodes(t *testing.T) {
	cfg, err := ParseYAML([]byte(`
pipeline:
  name: post
  nodes:
    - type: append
      config:
        id: 9
`))
	require.NoError(t, err)
	assert.Equal(t, "post", cfg.Pipeline.Name)

	f := NewNodeFactory()
	f.Register("append", func(c map[string]interface{}) (Node, error) {
		return &appendNode{name: "append", id: int64(c["id"].(int))}, nil
	})
	p, err := cfg.BuildPipeline(f)
	require.NoError(t, err)
	out, err := p.Run(context.Background(), core.NewRecommendContext(1, 5, ""), nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{9}, core.ItemIDs(out))

	_, err = NewNodeFactory().Build("append", nil)
	assert.ErrorContains(t, err, "unknown node type")
}

func TestLoadFromFiles(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "p.yaml")
	jsonPath := filepath.Join(dir, "p.json")
	require.NoError(t, os.WriteFile(yamlPath, []byte("pipeline:\n  nodes:\n    - type: rerank.topn\n"), 0o600))
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"pipeline":{"nodes":[{"type":"filter"}]}}`), 0o600))

	cfg, err := LoadFromYAML(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "rerank.topn", cfg.Pipeline.Nodes[0].Type)

	cfg, err = LoadFromJSON(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "filter", cfg.Pipeline.Nodes[0].Type)

	_, err = LoadFromYAML(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
