// Package store 包含存储实现：
//
//   - MemoryStore / RedisStore：core.KeyValueStore 的内存与 Redis 实现
//   - RecsStore：启动时从 parquet 批量加载、之后只读的离线推荐存储
//   - KVRecsStore：基于 KeyValueStore 有序集合的离线推荐存储
//
// 接口定义在 core 包。
package store

import "github.com/rushteam/recblend/core"

// ErrNotFound 表示 key 不存在
var ErrNotFound = core.ErrStoreNotFound
