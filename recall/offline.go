package recall

import (
	"context"

	"github.com/rushteam/recblend/core"
	"github.com/rushteam/recblend/pipeline"
	"github.com/rushteam/recblend/pkg/utils"
)

// Offline 是离线推荐召回源：直接转发到 OfflineStore。
// 个性化结果缺失时的默认排序回退由 Store 自己负责，这里不做回退也不去重。
type Offline struct {
	Store core.OfflineStore
}

func (r *Offline) Name() string        { return "recall.offline" }
func (r *Offline) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall
func (r *Offline) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recommend 返回离线存储给出的前 k 个物品 ID。
func (r *Offline) Recommend(ctx context.Context, userID int64, k int) ([]int64, error) {
	return Recommend(ctx, r, userID, k, utils.SourceOffline)
}

// Recall 实现 Source 接口
func (r *Offline) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	if err := rctx.Validate(); err != nil {
		return nil, err
	}
	if r.Store == nil {
		return nil, core.NewDomainError(core.ModuleRecall, core.ErrorCodeInternalError, "offline recall: store not configured")
	}

	ids, err := r.Store.Get(ctx, rctx.UserID, rctx.K)
	if err != nil {
		return nil, err
	}
	if len(ids) > rctx.K {
		ids = ids[:rctx.K]
	}
	return core.NewItems(ids, utils.SourceOffline), nil
}
