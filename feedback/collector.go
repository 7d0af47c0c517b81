// Package feedback 记录推荐结果的曝光事件，异步写入 Kafka，不影响请求结果。
package feedback

import (
	"context"
	"strconv"
	"time"

	"github.com/rushteam/recblend/core"
	"github.com/rushteam/recblend/pkg/utils"
)

// Type 反馈类型
type Type string

const (
	TypeImpression Type = "impression" // 曝光
)

// Event 反馈事件（轻量级，只包含必要信息）
type Event struct {
	UserID    int64             `json:"user_id"`
	ItemID    int64             `json:"item_id"`
	Scene     string            `json:"scene"`
	Type      Type              `json:"type"`
	Timestamp int64             `json:"timestamp"` // Unix 秒
	Position  int               `json:"position"`
	Score     float64           `json:"score"`
	Labels    map[string]string `json:"labels,omitempty"`
}

// Collector 反馈收集器接口（异步非阻塞）
type Collector interface {
	// RecordImpression 记录一次下发列表的曝光，不阻塞、不返回上游错误
	RecordImpression(ctx context.Context, rctx *core.RecommendContext, items []*core.Item)

	// Close 优雅关闭（等待缓冲数据发送完成）
	Close() error
}

// NopCollector 未配置 Kafka 时使用
type NopCollector struct{}

func (NopCollector) RecordImpression(context.Context, *core.RecommendContext, []*core.Item) {}
func (NopCollector) Close() error                                                           { return nil }

// impressions 把下发列表转成曝光事件，保留召回来源标签。
func impressions(rctx *core.RecommendContext, items []*core.Item, now time.Time) []*Event {
	events := make([]*Event, 0, len(items))
	for i, it := range items {
		if it == nil {
			continue
		}
		ev := &Event{
			UserID:    rctx.UserID,
			ItemID:    it.ID,
			Scene:     rctx.Scene,
			Type:      TypeImpression,
			Timestamp: now.Unix(),
			Position:  i,
			Score:     it.Score,
		}
		for _, key := range []string{utils.LabelRecallSource, utils.LabelBlendSlot} {
			if l, ok := it.Labels[key]; ok {
				if ev.Labels == nil {
					ev.Labels = make(map[string]string)
				}
				ev.Labels[key] = l.Value
			}
		}
		events = append(events, ev)
	}
	return events
}

func eventKey(ev *Event) []byte {
	return []byte(strconv.FormatInt(ev.UserID, 10))
}
