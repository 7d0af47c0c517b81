package filter

import (
	"context"

	"github.com/rushteam/recblend/core"
)

// BlacklistFilter 是黑名单过滤器，过滤掉黑名单中的物品。
type BlacklistFilter struct {
	items map[int64]struct{}
}

// NewBlacklistFilter 创建一个黑名单过滤器。
func NewBlacklistFilter(itemIDs []int64) *BlacklistFilter {
	set := make(map[int64]struct{}, len(itemIDs))
	for _, id := range itemIDs {
		set[id] = struct{}{}
	}
	return &BlacklistFilter{items: set}
}

func (f *BlacklistFilter) Name() string {
	return "filter.blacklist"
}

func (f *BlacklistFilter) ShouldFilter(
	_ context.Context,
	_ *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	_, ok := f.items[item.ID]
	return ok, nil
}
