package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/rushteam/recblend/core"
	"github.com/rushteam/recblend/feedback"
	"github.com/rushteam/recblend/metrics"
	"github.com/rushteam/recblend/pipeline"
	"github.com/rushteam/recblend/recall"
)

// DefaultK 未传 k 时返回的推荐数量
const DefaultK = 100

// Recommender 是离线/在线组合器的公共方法集。
type Recommender interface {
	Recommend(ctx context.Context, userID int64, k int) ([]int64, error)
}

// Handler 持有各接口依赖，handler 直接调用组合器，不经过 HTTP 回环。
type Handler struct {
	Offline Recommender
	Online  Recommender

	// Blended 是 Pipeline{Blender, 后处理节点...}
	Blended *pipeline.Pipeline

	Feedback feedback.Collector

	// RequestTimeout 单个请求的截止时间，<= 0 表示不限
	RequestTimeout time.Duration
}

// NewHandler 用两个组合器构造 Handler，融合接口在 Blender 之后追加 postNodes。
func NewHandler(offline *recall.Offline, online *recall.Online, postNodes []pipeline.Node, timeout time.Duration) *Handler {
	blender := &recall.Blender{Online: online, Offline: offline}
	return &Handler{
		Offline:        offline,
		Online:         online,
		Blended:        (&pipeline.Pipeline{Nodes: []pipeline.Node{blender}}).Then(postNodes...),
		Feedback:       feedback.NopCollector{},
		RequestTimeout: timeout,
	}
}

var validate = validator.New()

// recsQuery 是三个推荐接口共用的 query 参数
type recsQuery struct {
	UserID *int64 `validate:"required"`
	K      int    `validate:"gt=0"`
}

func parseRecsQuery(r *http.Request) (recsQuery, error) {
	q := recsQuery{K: DefaultK}
	values := r.URL.Query()

	if raw := values.Get("user_id"); raw != "" {
		uid, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return q, core.NewInvalidInputError(core.ModuleService, "user_id must be an integer: "+raw)
		}
		q.UserID = &uid
	}
	if raw := values.Get("k"); raw != "" {
		k, err := strconv.Atoi(raw)
		if err != nil {
			return q, core.NewInvalidInputError(core.ModuleService, "k must be an integer: "+raw)
		}
		q.K = k
	}

	if err := validate.Struct(&q); err != nil {
		return q, core.WrapDomainError(core.ModuleService, core.ErrorCodeInvalidInput, "invalid query", err)
	}
	return q, nil
}

func (h *Handler) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, h.RequestTimeout)
}

func (h *Handler) handleOffline(w http.ResponseWriter, r *http.Request) {
	h.serveRecommender(w, r, "offline", h.Offline)
}

func (h *Handler) handleOnline(w http.ResponseWriter, r *http.Request) {
	h.serveRecommender(w, r, "online", h.Online)
}

func (h *Handler) serveRecommender(w http.ResponseWriter, r *http.Request, endpoint string, rec Recommender) {
	q, err := parseRecsQuery(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	recs, err := rec.Recommend(ctx, *q.UserID, q.K)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if recs == nil {
		recs = []int64{}
	}
	metrics.ListLength.WithLabelValues(endpoint).Observe(float64(len(recs)))
	respondJSON(w, http.StatusOK, recsResponse{Recs: recs})
}

func (h *Handler) handleBlended(w http.ResponseWriter, r *http.Request) {
	q, err := parseRecsQuery(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	rctx := core.NewRecommendContext(*q.UserID, q.K, "blend")
	items, err := h.Blended.Run(ctx, rctx, nil)
	if err != nil {
		respondError(w, r, err)
		return
	}

	recs := core.ItemIDs(items)
	if len(recs) > q.K {
		recs = recs[:q.K]
	}
	if h.Feedback != nil {
		h.Feedback.RecordImpression(r.Context(), rctx, items)
	}
	metrics.ListLength.WithLabelValues("blend").Observe(float64(len(recs)))
	respondJSON(w, http.StatusOK, recsResponse{Recs: recs})
}
