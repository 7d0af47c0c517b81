package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rushteam/recblend/core"
	"github.com/rushteam/recblend/logging"
)

// Pipeline 把推荐逻辑拆成可组合的 Node 链。
// 融合接口使用 Pipeline{Blender, 可选的后处理节点...}。
type Pipeline struct {
	Nodes []Node
}

// Then 返回在当前节点之后追加 nodes 的新 Pipeline，不修改原 Pipeline。
func (p *Pipeline) Then(nodes ...Node) *Pipeline {
	all := make([]Node, 0, len(p.Nodes)+len(nodes))
	all = append(all, p.Nodes...)
	all = append(all, nodes...)
	return &Pipeline{Nodes: all}
}

func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		start := time.Now()
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", node.Name(), err)
		}
		logging.Ctx(ctx).Debug().
			Str("node", node.Name()).
			Str("kind", string(node.Kind())).
			Int("in", len(cur)).
			Int("out", len(next)).
			Dur("took", time.Since(start)).
			Msg("pipeline node done")
		cur = next
	}
	return cur, nil
}
