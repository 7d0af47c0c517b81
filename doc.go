// Package recblend 是离线/在线推荐融合服务。
//
// 设计要点：
//   - 离线推荐（预计算排序，个性化缺失时回退默认排序）与在线推荐
//     （最近交互 -> 相似物品）两路召回并发执行
//   - 融合规则固定：在线优先交替、追加剩余、去重、截断到 k
//   - 融合结果可接入 Pipeline 后处理节点（过滤、截断），由 YAML 配置
//
// 各组件位于子包：recall（组合器与融合）、store / event / feature（协作方）、
// api（HTTP 接口）、cmd/recommendations（服务入口）。
package recblend

import (
	"github.com/rushteam/recblend/pipeline"
	"github.com/rushteam/recblend/recall"
)

// 轻量 facade：便于直接 import "recblend" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall      = pipeline.KindRecall
	KindFilter      = pipeline.KindFilter
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)

// Blend 融合在线与离线推荐列表，见 recall.Blend。
func Blend(online, offline []int64, k int) []int64 {
	return recall.Blend(online, offline, k)
}
