package core

import "context"

// 推荐融合依赖的三个外部协作方。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（event / feature / store）实现
//   - 组合器只依赖接口，启动时注入具体实现，便于测试替换
//
// 实现：
//   - EventStore：event.HTTPStore（事件服务）、event.KVStore（Redis 有序集合）
//   - SimilarityStore：feature.HTTPSimilarityStore、feature.FeastSimilarityStore
//   - OfflineStore：store.RecsStore（parquet 预加载）、store.KVRecsStore（Redis）

// EventStore 返回用户最近的交互物品，最新的在前。
type EventStore interface {
	// RecentEvents 最多返回 k 个物品 ID，顺序即上游返回顺序，不做重排
	RecentEvents(ctx context.Context, userID int64, k int) ([]int64, error)
}

// SimilarItem 是一次相似度查询返回的候选：(物品, 分数)。
type SimilarItem struct {
	ItemID int64
	Score  float64
}

// SimilarityStore 返回与给定物品相似的物品及分数。
type SimilarityStore interface {
	// SimilarItems 最多返回 k 个候选，顺序即上游返回顺序
	SimilarItems(ctx context.Context, itemID int64, k int) ([]SimilarItem, error)
}

// OfflineStore 是离线推荐查询存储：按用户返回预先排好序的物品。
// 用户没有个性化结果时，由实现自己回退到默认排序。
type OfflineStore interface {
	Get(ctx context.Context, userID int64, k int) ([]int64, error)
}
