package rerank

import (
	"context"

	"github.com/rushteam/recblend/core"
	"github.com/rushteam/recblend/pipeline"
)

// TopNNode 截取前 N 个物品。
//
// N <= 0 时使用请求的 k（rctx.K）；两者都没有时不截断。
// 配置了固定 N 时，实际截断长度为 min(N, rctx.K)，不会超过请求的 k。
//
//	p := (&pipeline.Pipeline{Nodes: []pipeline.Node{blender}}).Then(&rerank.TopNNode{N: 20})
type TopNNode struct {
	N int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	limit := n.N
	if rctx != nil && rctx.K > 0 && (limit <= 0 || rctx.K < limit) {
		limit = rctx.K
	}
	if limit <= 0 || len(items) <= limit {
		return items, nil
	}
	return items[:limit], nil
}
