package filter

import (
	"context"

	"github.com/rushteam/recblend/core"
	"github.com/rushteam/recblend/pkg/dsl"
)

// ExprFilter 用 CEL 表达式过滤物品：表达式为 true 时移除。
//
// 示例：
//
//	filter.NewExprFilter(`label.recall_source == "online" && item.score < 0.1`)
type ExprFilter struct {
	prg *dsl.Program
}

// NewExprFilter 编译表达式，编译失败时返回错误。
func NewExprFilter(expr string) (*ExprFilter, error) {
	prg, err := dsl.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &ExprFilter{prg: prg}, nil
}

func (f *ExprFilter) Name() string {
	return "filter.expr"
}

func (f *ExprFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	return f.prg.Eval(item, rctx)
}
