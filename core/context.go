package core

import "github.com/rushteam/recblend/pkg/utils"

// RecommendContext 承载一次推荐请求的用户与参数，贯穿整个 Pipeline 透传。
// 它是请求级对象，不在请求之间共享。
type RecommendContext struct {
	UserID int64
	K      int    // 期望返回的物品数量
	Scene  string // offline / online / blend，用于日志与指标

	// Labels 是用户级标签，可驱动 Pipeline 后处理行为
	Labels map[string]utils.Label

	// Params 请求级附加参数（例如 CEL 表达式里引用的 rctx.params.xxx）
	Params map[string]any
}

// NewRecommendContext 创建请求上下文，不做参数校验（由调用方负责）。
func NewRecommendContext(userID int64, k int, scene string) *RecommendContext {
	return &RecommendContext{
		UserID: userID,
		K:      k,
		Scene:  scene,
		Labels: make(map[string]utils.Label),
		Params: make(map[string]any),
	}
}

// PutLabel 写入用户级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取用户级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}

// Validate 校验请求参数：k 必须为正数。
// 在发起任何上游调用之前调用。
func (rctx *RecommendContext) Validate() error {
	if rctx == nil {
		return NewInvalidInputError(ModuleRecall, "recommend context is nil")
	}
	return ValidateK(rctx.K)
}

// ValidateK 校验 k > 0。
func ValidateK(k int) error {
	if k <= 0 {
		return NewInvalidInputError(ModuleRecall, "k must be positive")
	}
	return nil
}
