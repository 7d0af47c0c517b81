package feature

import (
	"context"
	"time"

	"github.com/rushteam/recblend/core"
	"github.com/rushteam/recblend/feast"
)

// FeastSimilarityStore 从 Feast 在线特征读取相似 item。
//
// 特征视图 {view} 以 item_id 为实体，包含两个列表特征：
//   - {view}:item_id_2  int64 列表
//   - {view}:score      double 列表
type FeastSimilarityStore struct {
	client  feast.Client
	project string
	view    string
}

// NewFeastSimilarityStore 创建 Feast 相似度存储，view 为空时使用 "item_similarity"。
func NewFeastSimilarityStore(client feast.Client, project, view string) *FeastSimilarityStore {
	if view == "" {
		view = "item_similarity"
	}
	return &FeastSimilarityStore{client: client, project: project, view: view}
}

var _ core.SimilarityStore = (*FeastSimilarityStore)(nil)

func (s *FeastSimilarityStore) SimilarItems(ctx context.Context, itemID int64, k int) ([]core.SimilarItem, error) {
	start := time.Now()
	idsRef := s.view + ":item_id_2"
	scoreRef := s.view + ":score"

	resp, err := s.client.GetOnlineFeatures(ctx, &feast.GetOnlineFeaturesRequest{
		Features:   []string{idsRef, scoreRef},
		EntityRows: []map[string]any{{"item_id": itemID}},
		Project:    s.project,
	})
	if err != nil {
		record(outcomeError, start)
		return nil, core.NewUnavailableError(core.ModuleSimilarity, "feast online features", err)
	}
	if len(resp.FeatureVectors) != 1 {
		record(outcomeMalformed, start)
		return nil, core.NewMalformedError(core.ModuleSimilarity, "feast returned unexpected row count", nil)
	}

	values := resp.FeatureVectors[0].Values
	rawIDs, okIDs := values[idsRef]
	rawScores, okScores := values[scoreRef]
	if !okIDs && !okScores {
		// 实体不存在：没有相似 item
		record(outcomeOK, start)
		return nil, nil
	}
	ids, okIDs := rawIDs.([]int64)
	scores, okScores := rawScores.([]float64)
	if !okIDs || !okScores {
		record(outcomeMalformed, start)
		return nil, core.NewMalformedError(core.ModuleSimilarity, "feast similarity features have unexpected types", nil)
	}

	items, err := zipSimilar(ids, scores, k)
	if err != nil {
		record(outcomeMalformed, start)
		return nil, err
	}
	record(outcomeOK, start)
	return items, nil
}
