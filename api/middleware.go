package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/rushteam/recblend/logging"
	"github.com/rushteam/recblend/metrics"
)

const (
	headerRequestID     = "X-Request-ID"
	headerCorrelationID = "X-Correlation-ID"
)

// requestContext 为每个请求生成 request_id / correlation_id 并写入 context 与响应头。
// 请求头中已有的 ID 会被沿用。
func requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(headerRequestID)
		if requestID == "" {
			requestID = logging.GenerateRequestID()
		}
		correlationID := r.Header.Get(headerCorrelationID)
		if correlationID == "" {
			correlationID = logging.GenerateCorrelationID()
		}

		ctx := logging.ContextWithRequestID(r.Context(), requestID)
		ctx = logging.ContextWithCorrelationID(ctx, correlationID)
		w.Header().Set(headerRequestID, requestID)
		w.Header().Set(headerCorrelationID, correlationID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// accessLog 每个请求记录一行日志并上报 Prometheus 指标。
// route 使用 chi 路由模板，避免路径与 query 参数造成高基数。
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := routeLabel(r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		took := time.Since(start)
		metrics.RecordHTTP(route, strconv.Itoa(status), took)

		logging.Ctx(r.Context()).Info().
			Str("method", r.Method).
			Str("route", route).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Dur("took", took).
			Msg("http request")
	})
}

// routeUnmatched 是未命中任何路由的请求使用的 route 标签。
const routeUnmatched = "unmatched"

func routeLabel(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return routeUnmatched
}
