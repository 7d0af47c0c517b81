package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2" // duckdb database/sql driver

	"github.com/rushteam/recblend/core"
)

// ParquetLoader 使用内嵌 DuckDB 读取 parquet 文件（read_parquet）。
type ParquetLoader struct {
	db *sql.DB
}

// NewParquetLoader 打开一个内存 DuckDB 实例。
func NewParquetLoader() (*ParquetLoader, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	return &ParquetLoader{db: db}, nil
}

var _ RowLoader = (*ParquetLoader)(nil)

// LoadRows 读取 columns（仅允许 user_id / item_id / rank），按 rank 升序返回。
func (l *ParquetLoader) LoadRows(ctx context.Context, sourcePath string, columns []string) ([]Row, error) {
	query, err := buildParquetQuery(sourcePath, columns)
	if err != nil {
		return nil, err
	}

	rows, err := l.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query parquet: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.UserID, &r.ItemID, &r.Rank); err != nil {
			return nil, fmt.Errorf("scan parquet row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate parquet rows: %w", err)
	}
	return out, nil
}

func (l *ParquetLoader) Close() error {
	return l.db.Close()
}

// buildParquetQuery 生成固定三列 (user_id, item_id, rank) 的查询；缺失的列以 0 补齐。
func buildParquetQuery(sourcePath string, columns []string) (string, error) {
	if sourcePath == "" {
		return "", core.NewInvalidInputError(core.ModuleStore, "parquet source path is empty")
	}
	has := make(map[string]bool, len(columns))
	for _, c := range columns {
		switch c {
		case ColumnUserID, ColumnItemID, ColumnRank:
			has[c] = true
		default:
			return "", core.NewInvalidInputError(core.ModuleStore, fmt.Sprintf("unsupported column %q", c))
		}
	}

	selects := make([]string, 0, 3)
	for _, c := range []string{ColumnUserID, ColumnItemID, ColumnRank} {
		if has[c] {
			selects = append(selects, fmt.Sprintf(`CAST("%s" AS BIGINT)`, c))
		} else {
			selects = append(selects, "CAST(0 AS BIGINT)")
		}
	}

	order := ""
	if has[ColumnRank] {
		order = ` ORDER BY "` + ColumnRank + `"`
	}
	path := strings.ReplaceAll(sourcePath, "'", "''")
	return fmt.Sprintf("SELECT %s FROM read_parquet('%s')%s", strings.Join(selects, ", "), path, order), nil
}
