package store

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/rushteam/recblend/core"
	"github.com/rushteam/recblend/logging"
	"github.com/rushteam/recblend/metrics"
)

// KVRecsStore 是基于 KeyValueStore 有序集合的离线推荐存储。
//
// Key 约定：
//   - {prefix}:personal:{user_id}
//   - {prefix}:personal:users，已写入个性化推荐的用户索引
//   - {prefix}:default
//
// 成员为 item_id 的十进制字符串，分数越高越靠前（Seed 写入 -rank）。
type KVRecsStore struct {
	kv        core.KeyValueStore
	keyPrefix string

	personalCount atomic.Int64
	defaultCount  atomic.Int64
}

// NewKVRecsStore 创建 KVRecsStore，keyPrefix 为空时使用 "recs"。
func NewKVRecsStore(kv core.KeyValueStore, keyPrefix string) *KVRecsStore {
	if keyPrefix == "" {
		keyPrefix = "recs"
	}
	return &KVRecsStore{kv: kv, keyPrefix: keyPrefix}
}

var _ core.OfflineStore = (*KVRecsStore)(nil)

func (s *KVRecsStore) personalKey(userID int64) string {
	return fmt.Sprintf("%s:%s:%d", s.keyPrefix, NamespacePersonal, userID)
}

func (s *KVRecsStore) usersKey() string {
	return s.keyPrefix + ":" + NamespacePersonal + ":users"
}

func (s *KVRecsStore) defaultKey() string {
	return s.keyPrefix + ":" + NamespaceDefault
}

// Get 优先读个性化有序集合，为空时回退到默认有序集合。
func (s *KVRecsStore) Get(ctx context.Context, userID int64, k int) ([]int64, error) {
	if err := core.ValidateK(k); err != nil {
		return nil, err
	}

	ids, err := s.rangeIDs(ctx, s.personalKey(userID), k)
	if err != nil {
		return nil, err
	}
	if len(ids) > 0 {
		s.personalCount.Add(1)
		metrics.OfflineLookups.WithLabelValues(NamespacePersonal).Inc()
		logLookup(ctx, userID, true, s.personalCount.Load(), s.defaultCount.Load())
		return ids, nil
	}

	ids, err = s.rangeIDs(ctx, s.defaultKey(), k)
	if err != nil {
		return nil, err
	}
	s.defaultCount.Add(1)
	metrics.OfflineLookups.WithLabelValues(NamespaceDefault).Inc()
	logLookup(ctx, userID, false, s.personalCount.Load(), s.defaultCount.Load())
	return ids, nil
}

func (s *KVRecsStore) rangeIDs(ctx context.Context, key string, k int) ([]int64, error) {
	members, err := s.kv.ZRange(ctx, key, 0, int64(k-1))
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, nil
		}
		return nil, core.NewUnavailableError(core.ModuleStore, "offline zrange "+key, err)
	}
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			return nil, core.NewMalformedError(core.ModuleStore, "offline member is not an item id: "+m, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Seed 用 rows 整体替换命名空间内的离线推荐，rank 越小分数越高。
// 与 RecsStore.LoadRows 一致：上一次写入但本次不存在的用户或物品会被清除。
// 替换过程非原子，期间的读请求可能回退到默认推荐或得到空列表。
func (s *KVRecsStore) Seed(ctx context.Context, namespace string, rows []Row) error {
	if _, err := RequiredColumns(namespace); err != nil {
		return err
	}
	if err := s.clear(ctx, namespace); err != nil {
		return err
	}

	users := make(map[int64]struct{})
	for _, r := range rows {
		key := s.defaultKey()
		if namespace == NamespacePersonal {
			key = s.personalKey(r.UserID)
			if _, ok := users[r.UserID]; !ok {
				users[r.UserID] = struct{}{}
				if err := s.kv.ZAdd(ctx, s.usersKey(), 0, strconv.FormatInt(r.UserID, 10)); err != nil {
					return fmt.Errorf("seed %s: %w", s.usersKey(), err)
				}
			}
		}
		if err := s.kv.ZAdd(ctx, key, -float64(r.Rank), strconv.FormatInt(r.ItemID, 10)); err != nil {
			return fmt.Errorf("seed %s: %w", key, err)
		}
	}
	logging.WithComponent("kv_recs_store").Info().
		Str("namespace", namespace).
		Int("rows", len(rows)).
		Int("users", len(users)).
		Msg("offline recommendations seeded")
	return nil
}

// clear 删除命名空间下已有的有序集合。
func (s *KVRecsStore) clear(ctx context.Context, namespace string) error {
	if namespace != NamespacePersonal {
		if err := s.kv.Delete(ctx, s.defaultKey()); err != nil {
			return fmt.Errorf("clear %s: %w", s.defaultKey(), err)
		}
		return nil
	}

	users, err := s.kv.ZRange(ctx, s.usersKey(), 0, -1)
	if err != nil && !core.IsStoreNotFound(err) {
		return fmt.Errorf("clear %s: %w", s.usersKey(), err)
	}
	for _, uid := range users {
		key := s.keyPrefix + ":" + NamespacePersonal + ":" + uid
		if err := s.kv.Delete(ctx, key); err != nil {
			return fmt.Errorf("clear %s: %w", key, err)
		}
	}
	if err := s.kv.Delete(ctx, s.usersKey()); err != nil {
		return fmt.Errorf("clear %s: %w", s.usersKey(), err)
	}
	return nil
}

// Load 通过 loader 读取行后写入有序集合。
func (s *KVRecsStore) Load(ctx context.Context, loader RowLoader, namespace, sourcePath string, columns []string) error {
	if err := checkColumns(namespace, columns); err != nil {
		return err
	}
	rows, err := loader.LoadRows(ctx, sourcePath, columns)
	if err != nil {
		return fmt.Errorf("load %s from %s: %w", namespace, sourcePath, err)
	}
	return s.Seed(ctx, namespace, rows)
}

// Stats 记录并返回请求计数；Users/DefaultItems 在 KV 后端下不统计。
func (s *KVRecsStore) Stats() RecsStats {
	st := RecsStats{
		PersonalRequests: s.personalCount.Load(),
		DefaultRequests:  s.defaultCount.Load(),
	}
	logging.WithComponent("kv_recs_store").Info().
		Int64("request_personal_count", st.PersonalRequests).
		Int64("request_default_count", st.DefaultRequests).
		Msg("offline store stats")
	return st
}
