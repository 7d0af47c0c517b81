package recall

import (
	"cmp"
	"context"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/recblend/core"
	"github.com/rushteam/recblend/logging"
	"github.com/rushteam/recblend/pipeline"
	"github.com/rushteam/recblend/pkg/utils"
)

// DefaultRecentEventsK 在线召回读取的最近事件数量。
const DefaultRecentEventsK = 3

// Online 是基于用户最近行为 + 物品相似度的实时召回源。
//
// 流程：
//  1. 从 EventStore 读取用户最近 EventsK 个交互物品（最新在前）
//  2. 每个事件物品并发请求 SimilarityStore，最多 k 个相似物品
//  3. 按 (事件序号, 返回序号) 还原发现顺序后合并，按分数降序稳定排序
//  4. 丢弃分数，按首次出现去重
//
// 结果不截断到 k：每个事件最多贡献 k 个候选，截断由 Blender 负责。
// 任一上游调用失败，整个在线召回失败（UNAVAILABLE），不返回部分结果。
type Online struct {
	Events     core.EventStore
	Similarity core.SimilarityStore

	// EventsK 读取的最近事件数，<= 0 时使用 DefaultRecentEventsK
	EventsK int
}

func (r *Online) Name() string        { return "recall.online" }
func (r *Online) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall
func (r *Online) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recommend 返回去重后、按相似度降序的物品 ID。
func (r *Online) Recommend(ctx context.Context, userID int64, k int) ([]int64, error) {
	return Recommend(ctx, r, userID, k, utils.SourceOnline)
}

// Recall 实现 Source 接口；Item.Score 为该物品的最高相似度分数。
func (r *Online) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	if err := rctx.Validate(); err != nil {
		return nil, err
	}
	candidates, err := r.Candidates(ctx, rctx.UserID, rctx.K)
	if err != nil {
		return nil, err
	}

	items := make([]*core.Item, 0, len(candidates))
	for _, c := range candidates {
		it := core.NewItem(c.ItemID)
		it.Score = c.Score
		it.PutLabel(utils.LabelRecallSource, utils.Label{Value: utils.SourceOnline, Source: "recall"})
		items = append(items, it)
	}
	return core.DedupItems(items), nil
}

// Candidates 返回合并并排序后、去重之前的候选列表。
func (r *Online) Candidates(ctx context.Context, userID int64, k int) ([]core.SimilarItem, error) {
	if err := core.ValidateK(k); err != nil {
		return nil, err
	}
	if r.Events == nil || r.Similarity == nil {
		return nil, core.NewDomainError(core.ModuleRecall, core.ErrorCodeInternalError, "online recall: stores not configured")
	}

	eventsK := r.EventsK
	if eventsK <= 0 {
		eventsK = DefaultRecentEventsK
	}

	events, err := r.Events.RecentEvents(ctx, userID, eventsK)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Int64("user_id", userID).Msg("fetch recent events failed")
		return nil, core.AsUnavailable(core.ModuleEvents, "fetch recent events", err)
	}
	if len(events) == 0 {
		return nil, nil
	}
	// 事件服务可能多返回，只取最新的 eventsK 个
	if len(events) > eventsK {
		events = events[:eventsK]
	}

	// 每个事件一个槽位，合并顺序与完成顺序无关
	slots := make([][]core.SimilarItem, len(events))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, itemID := range events {
		eg.Go(func() error {
			similar, err := r.Similarity.SimilarItems(egCtx, itemID, k)
			if err != nil {
				logging.Ctx(ctx).Warn().Err(err).
					Int64("user_id", userID).
					Int64("item_id", itemID).
					Msg("fetch similar items failed")
				return core.AsUnavailable(core.ModuleSimilarity, "fetch similar items", err)
			}
			slots[i] = similar
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, s := range slots {
		total += len(s)
	}
	pooled := make([]core.SimilarItem, 0, total)
	for _, s := range slots {
		pooled = append(pooled, s...)
	}

	// 稳定排序：同分保持发现顺序；NaN 排在最后
	slices.SortStableFunc(pooled, func(a, b core.SimilarItem) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return pooled, nil
}
