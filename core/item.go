package core

import "github.com/rushteam/recblend/pkg/utils"

// Item 是推荐链路中的统一承载结构：物品 ID、分数、标签。
// Labels 用于解释与观测；Score 只在在线召回中有意义（相似度分数）。
type Item struct {
	ID     int64
	Score  float64
	Meta   map[string]any
	Labels map[string]utils.Label
}

func NewItem(id int64) *Item {
	return &Item{
		ID:     id,
		Meta:   make(map[string]any),
		Labels: make(map[string]utils.Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// NewItems 把有序 ID 列表转换为 Item 列表，并打上召回来源标签。
func NewItems(ids []int64, source string) []*Item {
	out := make([]*Item, 0, len(ids))
	for _, id := range ids {
		it := NewItem(id)
		it.PutLabel(utils.LabelRecallSource, utils.Label{Value: source, Source: "recall"})
		out = append(out, it)
	}
	return out
}

// ItemIDs 按顺序取出 Item 的 ID。
func ItemIDs(items []*Item) []int64 {
	out := make([]int64, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		out = append(out, it.ID)
	}
	return out
}

// DedupItems 按 ID 去重，保留首次出现的 Item；被丢弃的重复项的 Labels 合并到保留者上。
func DedupItems(items []*Item) []*Item {
	nonNil := make([]*Item, 0, len(items))
	for _, it := range items {
		if it != nil {
			nonNil = append(nonNil, it)
		}
	}
	return utils.DedupBy(nonNil,
		func(it *Item) int64 { return it.ID },
		func(kept, dropped *Item) {
			for k, v := range dropped.Labels {
				kept.PutLabel(k, v)
			}
		},
	)
}
