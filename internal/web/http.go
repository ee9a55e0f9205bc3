package admin

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/winspan/gfwlist2smartdns/internal/dns"
)

type Api struct {
	syncer *dns.SyncManager
	token  string
}

// Options 管理接口选项
type Options struct {
	AdminToken  string
	MetricsPath string // 为空则不暴露指标
}

func BindRoutes(r *chi.Mux, syncer *dns.SyncManager, opts Options) {
	api := &Api{syncer: syncer, token: opts.AdminToken}

	// 中间件
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)

	r.Group(func(rr chi.Router) {
		rr.Use(middleware.Timeout(10 * time.Second))
		rr.Get("/api/health", api.health)
		rr.Get("/api/status", api.getStatus)
		rr.Get("/gfwlist.conf", api.getConf)
		if opts.MetricsPath != "" {
			rr.Handle(opts.MetricsPath, promhttp.Handler())
		}
	})

	// 同步会下载参考文档，不受读接口超时限制
	r.Group(func(pr chi.Router) {
		pr.Use(api.auth)
		pr.Post("/api/sync", api.syncNow)
	})
}

func (a *Api) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		if !strings.HasPrefix(h, "Bearer ") || a.token == "" || strings.TrimPrefix(h, "Bearer ") != a.token {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *Api) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (a *Api) getStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.syncer.GetSyncStatus())
}

func (a *Api) getConf(w http.ResponseWriter, r *http.Request) {
	conf := a.syncer.Conf()
	if conf == nil {
		http.Error(w, "no successful sync yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("content-type", "text/plain; charset=utf-8")
	_, _ = w.Write(conf)
}

func (a *Api) syncNow(w http.ResponseWriter, r *http.Request) {
	if err := a.syncer.SyncNow(r.Context()); err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]any{"ok": false, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
