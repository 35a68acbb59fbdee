// Package transporthttp is the thin HTTP layer over the registries and the
// batch pipeline. Handlers delegate to narrow service interfaces and never
// embed audit logic.
package transporthttp

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"docaudit/pkg/platform/httputil"
)

// Deps carries the handler collaborators. Registry is optional; when nil the
// /metrics endpoint serves the default gatherer.
type Deps struct {
	Documents DocumentService
	Rules     RuleService
	Batch     BatchService
	History   HistoryService
	UIState   UIStateService
	Logger    *slog.Logger
	Registry  *prometheus.Registry
}

// NewRouter wires all endpoints.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(requestLogger(deps.Logger))

	docs := &documentHandler{
		documents: deps.Documents,
		uistate:   deps.UIState,
		history:   deps.History,
		logger:    deps.Logger,
	}
	docs.Register(r)

	rules := &ruleHandler{rules: deps.Rules, logger: deps.Logger}
	rules.Register(r)

	batch := &batchHandler{
		batch:   deps.Batch,
		history: deps.History,
		uistate: deps.UIState,
		logger:  deps.Logger,
	}
	batch.Register(r)

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	} else {
		r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	}
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if logger == nil {
				next.ServeHTTP(w, r)
				return
			}
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.InfoContext(r.Context(), "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}
