package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/recblend/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("item", cel.DynType),
			cel.Variable("label", cel.DynType),
			cel.Variable("rctx", cel.DynType),
		)
	})
	return celEnv, celEnvErr
}

// Program 是编译好的 Label DSL 表达式，可并发复用。
//
// 表达式语法（CEL）：
//   - label.recall_source == "online"
//   - item.score > 0.7
//   - item.id != 42 && rctx.user_id > 0
//   - "recall_source" in label
type Program struct {
	expr string
	prg  cel.Program
}

// Compile 编译表达式，表达式必须返回 bool。
func Compile(expr string) (*Program, error) {
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	return &Program{expr: expr, prg: prg}, nil
}

// String 返回原始表达式
func (p *Program) String() string { return p.expr }

// Eval 对单个 item 求值。
func (p *Program) Eval(item *core.Item, rctx *core.RecommendContext) (bool, error) {
	out, _, err := p.prg.Eval(buildInput(item, rctx))
	if err != nil {
		return false, fmt.Errorf("eval error: %w", err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// Evaluate 编译并执行一次表达式；空表达式恒为 true。
func Evaluate(expr string, item *core.Item, rctx *core.RecommendContext) (bool, error) {
	if expr == "" {
		return true, nil
	}
	p, err := Compile(expr)
	if err != nil {
		return false, err
	}
	return p.Eval(item, rctx)
}

func buildInput(item *core.Item, rctx *core.RecommendContext) map[string]interface{} {
	labels := make(map[string]interface{})
	itemMap := map[string]interface{}{}
	if item != nil {
		for k, v := range item.Labels {
			labels[k] = v.Value
		}
		itemMap["id"] = item.ID
		itemMap["score"] = item.Score
		itemMap["meta"] = item.Meta
	}

	rctxMap := map[string]interface{}{}
	if rctx != nil {
		userLabels := make(map[string]interface{}, len(rctx.Labels))
		for k, v := range rctx.Labels {
			userLabels[k] = v.Value
		}
		rctxMap["user_id"] = rctx.UserID
		rctxMap["k"] = int64(rctx.K)
		rctxMap["scene"] = rctx.Scene
		rctxMap["labels"] = userLabels
		rctxMap["params"] = rctx.Params
	}

	return map[string]interface{}{
		"item":  itemMap,
		"label": labels,
		"rctx":  rctxMap,
	}
}
