package utils

// Dedup 按首次出现顺序去重，返回新切片，不修改输入。
// 单次遍历 + seen 集合，O(n)。
func Dedup[T comparable](ids []T) []T {
	seen := make(map[T]struct{}, len(ids))
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// DedupBy 与 Dedup 相同，但按 key(v) 判重，保留首次出现的元素。
// onDup 不为空时，对每个被丢弃的元素回调 (保留者, 被丢弃者)。
func DedupBy[T any, K comparable](in []T, key func(T) K, onDup func(kept, dropped T)) []T {
	seen := make(map[K]int, len(in))
	out := make([]T, 0, len(in))
	for _, v := range in {
		k := key(v)
		if i, ok := seen[k]; ok {
			if onDup != nil {
				onDup(out[i], v)
			}
			continue
		}
		seen[k] = len(out)
		out = append(out, v)
	}
	return out
}
