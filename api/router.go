// Package api 提供推荐服务的 HTTP 接口（chi）。
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 路由
const (
	RouteOffline = "/recommendations_offline"
	RouteOnline  = "/recommendations_online"
	RouteBlended = "/recommendations"
	RouteHealth  = "/healthz"
	RouteMetrics = "/metrics"
)

// NewRouter 注册全部路由和中间件。
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(requestContext)
	r.Use(accessLog)

	r.Post(RouteOffline, h.handleOffline)
	r.Post(RouteOnline, h.handleOnline)
	r.Post(RouteBlended, h.handleBlended)
	r.Get(RouteHealth, handleHealth)
	r.Method(http.MethodGet, RouteMetrics, promhttp.Handler())
	return r
}

// NewServer 创建 http.Server，读写超时在请求超时基础上留出余量。
func NewServer(addr string, handler http.Handler, requestTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      requestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
