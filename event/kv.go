package event

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rushteam/recblend/core"
)

// KVStore 从 KeyValueStore 的有序集合读取最近事件。
//
// Key：{prefix}:{user_id}，成员为 item_id，分数为事件时间戳，
// ZRange 按分数降序返回，即新到旧。
type KVStore struct {
	kv        core.KeyValueStore
	keyPrefix string
}

// NewKVStore 创建 KVStore，keyPrefix 为空时使用 "events"。
func NewKVStore(kv core.KeyValueStore, keyPrefix string) *KVStore {
	if keyPrefix == "" {
		keyPrefix = "events"
	}
	return &KVStore{kv: kv, keyPrefix: keyPrefix}
}

var _ core.EventStore = (*KVStore)(nil)

func (s *KVStore) key(userID int64) string {
	return fmt.Sprintf("%s:%d", s.keyPrefix, userID)
}

func (s *KVStore) RecentEvents(ctx context.Context, userID int64, k int) ([]int64, error) {
	if k <= 0 {
		return nil, nil
	}
	start := time.Now()

	members, err := s.kv.ZRange(ctx, s.key(userID), 0, int64(k-1))
	if err != nil && !core.IsStoreNotFound(err) {
		record(outcomeError, start)
		return nil, core.NewUnavailableError(core.ModuleEvents, "events zrange", err)
	}

	ids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			record(outcomeMalformed, start)
			return nil, core.NewMalformedError(core.ModuleEvents, "event member is not an item id: "+m, err)
		}
		ids = append(ids, id)
	}
	record(outcomeOK, start)
	return ids, nil
}

// Put 记录一次交互事件，ts 作为分数。
func (s *KVStore) Put(ctx context.Context, userID, itemID int64, ts time.Time) error {
	return s.kv.ZAdd(ctx, s.key(userID), float64(ts.UnixMilli()), strconv.FormatInt(itemID, 10))
}
