package recall

import (
	"context"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/recblend/core"
	"github.com/rushteam/recblend/logging"
	"github.com/rushteam/recblend/pipeline"
	"github.com/rushteam/recblend/pkg/utils"
)

// Blender 是一个 Recall Node：并发执行在线、离线两个召回源，交替融合。
//
// 融合规则（固定在线优先）：
//
//	n = min(len(online), len(offline))
//	online[0], offline[0], online[1], offline[1], ... 共 2n 个
//	追加较长一方剩余部分（保持原顺序）
//	按首次出现去重，截断到 k
//
// 任一召回源失败，整个融合失败，不降级为单路结果。
type Blender struct {
	Online  Source
	Offline Source
}

func (n *Blender) Name() string        { return "recall.blend" }
func (n *Blender) Kind() pipeline.Kind { return pipeline.KindRecall }

func (n *Blender) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return n.Recall(ctx, rctx)
}

// Recommend 返回融合后的前 k 个物品 ID。
func (n *Blender) Recommend(ctx context.Context, userID int64, k int) ([]int64, error) {
	return Recommend(ctx, n, userID, k, "blend")
}

// Recall 实现 Source 接口，两路召回都完成后才融合。
func (n *Blender) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	if err := rctx.Validate(); err != nil {
		return nil, err
	}
	if n.Online == nil || n.Offline == nil {
		return nil, core.NewDomainError(core.ModuleRecall, core.ErrorCodeInternalError, "blend: sources not configured")
	}

	var online, offline []*core.Item
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		items, err := n.Online.Recall(egCtx, rctx)
		if err != nil {
			return err
		}
		online = items
		return nil
	})
	eg.Go(func() error {
		items, err := n.Offline.Recall(egCtx, rctx)
		if err != nil {
			return err
		}
		offline = items
		return nil
	})
	if err := eg.Wait(); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Int64("user_id", rctx.UserID).Msg("blend aborted")
		return nil, err
	}

	out := BlendItems(online, offline, rctx.K)
	for i, it := range out {
		it.PutLabel(utils.LabelBlendSlot, utils.Label{Value: strconv.Itoa(i), Source: "blend"})
	}
	return out, nil
}

// Blend 融合两个有序 ID 列表，结果无重复且长度 <= k。
func Blend(online, offline []int64, k int) []int64 {
	if k <= 0 {
		return []int64{}
	}
	out := utils.Dedup(interleave(online, offline))
	if len(out) > k {
		out = out[:k]
	}
	return out
}

// BlendItems 与 Blend 规则相同，按 Item.ID 去重并合并重复项的 Labels。
func BlendItems(online, offline []*core.Item, k int) []*core.Item {
	if k <= 0 {
		return []*core.Item{}
	}
	out := core.DedupItems(interleave(online, offline))
	if len(out) > k {
		out = out[:k]
	}
	return out
}

// interleave 交替拼接 a、b 的前 min(len) 个元素（a 在前），再追加剩余部分。
func interleave[T any](a, b []T) []T {
	n := min(len(a), len(b))
	out := make([]T, 0, len(a)+len(b))
	for i := 0; i < n; i++ {
		out = append(out, a[i], b[i])
	}
	out = append(out, a[n:]...)
	out = append(out, b[n:]...)
	return out
}
