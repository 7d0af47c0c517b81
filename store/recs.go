package store

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/rushteam/recblend/core"
	"github.com/rushteam/recblend/logging"
	"github.com/rushteam/recblend/metrics"
)

// 离线推荐的两个命名空间。
const (
	NamespacePersonal = "personal" // 列：user_id, item_id, rank
	NamespaceDefault  = "default"  // 列：item_id, rank
)

// 列名
const (
	ColumnUserID = "user_id"
	ColumnItemID = "item_id"
	ColumnRank   = "rank"
)

// Row 是离线推荐表的一行；default 命名空间的 UserID 为 0。
type Row struct {
	UserID int64
	ItemID int64
	Rank   int64
}

// RowLoader 从数据源（parquet 文件等）读取离线推荐行。
type RowLoader interface {
	LoadRows(ctx context.Context, sourcePath string, columns []string) ([]Row, error)
}

// RecsStats 是离线推荐存储的请求计数快照。
type RecsStats struct {
	PersonalRequests int64 `json:"request_personal_count"`
	DefaultRequests  int64 `json:"request_default_count"`
	Users            int   `json:"users"`
	DefaultItems     int   `json:"default_items"`
}

// RecsStore 是启动时加载、之后只读的内存离线推荐存储。
//
// Get 优先返回用户的个性化排序；用户不存在（或个性化列表为空）时回退到默认排序。
// 加载只在启动阶段进行，之后并发读取只需要读锁。
type RecsStore struct {
	loader RowLoader

	mu       sync.RWMutex
	personal map[int64][]int64
	defaults []int64

	personalCount atomic.Int64
	defaultCount  atomic.Int64
}

// NewRecsStore 创建空存储；loader 可为空（只使用 LoadRows 直接灌数据时）。
func NewRecsStore(loader RowLoader) *RecsStore {
	return &RecsStore{
		loader:   loader,
		personal: make(map[int64][]int64),
	}
}

var _ core.OfflineStore = (*RecsStore)(nil)

// Load 通过 RowLoader 从 sourcePath 读取 columns 并写入 namespace。
func (s *RecsStore) Load(ctx context.Context, namespace, sourcePath string, columns []string) error {
	if err := checkColumns(namespace, columns); err != nil {
		return err
	}
	if s.loader == nil {
		return core.NewDomainError(core.ModuleStore, core.ErrorCodeNotSupported, "recs store: no row loader configured")
	}
	rows, err := s.loader.LoadRows(ctx, sourcePath, columns)
	if err != nil {
		return fmt.Errorf("load %s from %s: %w", namespace, sourcePath, err)
	}
	if err := s.LoadRows(namespace, rows); err != nil {
		return err
	}
	logging.WithComponent("recs_store").Info().
		Str("namespace", namespace).
		Str("source", sourcePath).
		Int("rows", len(rows)).
		Msg("offline recommendations loaded")
	return nil
}

// LoadRows 直接写入已读取的行，按 rank 升序排列（同 rank 保持输入顺序）。
// 同一 namespace 重复加载会整体替换。
func (s *RecsStore) LoadRows(namespace string, rows []Row) error {
	sorted := slices.Clone(rows)
	slices.SortStableFunc(sorted, func(a, b Row) int {
		switch {
		case a.Rank < b.Rank:
			return -1
		case a.Rank > b.Rank:
			return 1
		}
		return 0
	})

	switch namespace {
	case NamespacePersonal:
		personal := make(map[int64][]int64)
		for _, r := range sorted {
			personal[r.UserID] = append(personal[r.UserID], r.ItemID)
		}
		s.mu.Lock()
		s.personal = personal
		s.mu.Unlock()
	case NamespaceDefault:
		defaults := make([]int64, 0, len(sorted))
		for _, r := range sorted {
			defaults = append(defaults, r.ItemID)
		}
		s.mu.Lock()
		s.defaults = defaults
		s.mu.Unlock()
	default:
		return core.NewInvalidInputError(core.ModuleStore, "unknown namespace: "+namespace)
	}
	return nil
}

// Get 返回用户的前 k 个离线推荐。
func (s *RecsStore) Get(ctx context.Context, userID int64, k int) ([]int64, error) {
	if err := core.ValidateK(k); err != nil {
		return nil, err
	}

	s.mu.RLock()
	recs, ok := s.personal[userID]
	if !ok || len(recs) == 0 {
		recs = s.defaults
		ok = false
	}
	s.mu.RUnlock()

	if ok {
		s.personalCount.Add(1)
		metrics.OfflineLookups.WithLabelValues(NamespacePersonal).Inc()
	} else {
		s.defaultCount.Add(1)
		metrics.OfflineLookups.WithLabelValues(NamespaceDefault).Inc()
	}
	logLookup(ctx, userID, ok, s.personalCount.Load(), s.defaultCount.Load())

	if len(recs) > k {
		recs = recs[:k]
	}
	return slices.Clone(recs), nil
}

// Stats 记录并返回请求计数。
func (s *RecsStore) Stats() RecsStats {
	s.mu.RLock()
	st := RecsStats{
		PersonalRequests: s.personalCount.Load(),
		DefaultRequests:  s.defaultCount.Load(),
		Users:            len(s.personal),
		DefaultItems:     len(s.defaults),
	}
	s.mu.RUnlock()

	logging.WithComponent("recs_store").Info().
		Int64("request_personal_count", st.PersonalRequests).
		Int64("request_default_count", st.DefaultRequests).
		Int("users", st.Users).
		Int("default_items", st.DefaultItems).
		Msg("offline store stats")
	return st
}

// logLookup 每次查询后以 debug 级别输出累计计数，shutdown 时由 Stats 输出汇总。
func logLookup(ctx context.Context, userID int64, personal bool, personalCount, defaultCount int64) {
	logging.Ctx(ctx).Debug().
		Int64("user_id", userID).
		Bool("personal", personal).
		Int64("request_personal_count", personalCount).
		Int64("request_default_count", defaultCount).
		Msg("offline lookup")
}

// RequiredColumns 返回命名空间必须包含的列。
func RequiredColumns(namespace string) ([]string, error) {
	switch namespace {
	case NamespacePersonal:
		return []string{ColumnUserID, ColumnItemID, ColumnRank}, nil
	case NamespaceDefault:
		return []string{ColumnItemID, ColumnRank}, nil
	default:
		return nil, core.NewInvalidInputError(core.ModuleStore, "unknown namespace: "+namespace)
	}
}

func checkColumns(namespace string, columns []string) error {
	required, err := RequiredColumns(namespace)
	if err != nil {
		return err
	}
	for _, c := range required {
		if !slices.Contains(columns, c) {
			return core.NewInvalidInputError(core.ModuleStore, fmt.Sprintf("namespace %s requires column %q", namespace, c))
		}
	}
	return nil
}
