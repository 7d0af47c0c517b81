// Package filter 提供融合结果的后置过滤：黑名单与 CEL 表达式。
package filter

import (
	"context"

	"github.com/rushteam/recblend/core"
	"github.com/rushteam/recblend/logging"
	"github.com/rushteam/recblend/pipeline"
	"github.com/rushteam/recblend/pkg/utils"
)

// Filter 判断融合结果中的某个物品是否需要剔除，true 表示剔除。
type Filter interface {
	Name() string
	ShouldFilter(ctx context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error)
}

// FilterNode 是过滤 Node，可以组合多个过滤器。
// 任一过滤器返回 true，该物品就会被移除；保留物品的相对顺序不变。
type FilterNode struct {
	Filters []Filter
}

func (n *FilterNode) Name() string {
	return "filter.node"
}

func (n *FilterNode) Kind() pipeline.Kind {
	return pipeline.KindFilter
}

func (n *FilterNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(n.Filters) == 0 || len(items) == 0 {
		return items, nil
	}

	out := make([]*core.Item, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}

		filtered := false
		for _, f := range n.Filters {
			ok, err := f.ShouldFilter(ctx, rctx, item)
			if err != nil {
				// 过滤器出错时保留物品，不中断请求
				logging.Ctx(ctx).Debug().Err(err).Str("filter", f.Name()).Int64("item_id", item.ID).Msg("filter error")
				continue
			}
			if ok {
				filtered = true
				item.PutLabel(utils.LabelFiltered, utils.Label{Value: "true", Source: f.Name()})
				break
			}
		}
		if !filtered {
			out = append(out, item)
		}
	}
	return out, nil
}
