package recall

import (
	"context"

	"github.com/rushteam/recblend/core"
)

// Source 表示一个可并发执行的召回源（离线 / 在线）。
// Blender 同时执行两个 Source 并融合结果。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error)
}

// Recommend 以 (userID, k) 调用 Source，返回有序物品 ID 列表。
func Recommend(ctx context.Context, src Source, userID int64, k int, scene string) ([]int64, error) {
	rctx := core.NewRecommendContext(userID, k, scene)
	if err := rctx.Validate(); err != nil {
		return nil, err
	}
	items, err := src.Recall(ctx, rctx)
	if err != nil {
		return nil, err
	}
	return core.ItemIDs(items), nil
}
