// Package feature 提供 item 相似度读取客户端（core.SimilarityStore 实现）。
//
//   - HTTPSimilarityStore：特征服务 HTTP 接口
//   - FeastSimilarityStore：Feast 在线特征（列表特征 item_id_2 / score）
package feature

import (
	"fmt"
	"time"

	"github.com/rushteam/recblend/core"
	"github.com/rushteam/recblend/metrics"
)

const (
	outcomeOK        = "ok"
	outcomeError     = "error"
	outcomeMalformed = "malformed"
)

func record(outcome string, start time.Time) {
	metrics.RecordUpstream(metrics.UpstreamSimilarity, outcome, time.Since(start))
}

// zipSimilar 把并行数组组装为 SimilarItem，长度不一致返回 MALFORMED_RESPONSE。
// k > 0 时截断到前 k 个。
func zipSimilar(itemIDs []int64, scores []float64, k int) ([]core.SimilarItem, error) {
	if len(itemIDs) != len(scores) {
		return nil, core.NewMalformedError(core.ModuleSimilarity,
			"similar items length mismatch",
			fmt.Errorf("item_id_2 has %d entries, score has %d", len(itemIDs), len(scores)))
	}
	n := len(itemIDs)
	if k > 0 && n > k {
		n = k
	}
	out := make([]core.SimilarItem, n)
	for i := 0; i < n; i++ {
		out[i] = core.SimilarItem{ItemID: itemIDs[i], Score: scores[i]}
	}
	return out, nil
}
