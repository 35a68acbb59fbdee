package transporthttp

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"

	"docaudit/internal/batch"
	dErrors "docaudit/pkg/domain-errors"
	"docaudit/pkg/platform/httputil"
)

// BatchService runs one audit pass over the unprocessed documents.
type BatchService interface {
	Run(ctx context.Context) batch.Summary
}

type batchHandler struct {
	batch   BatchService
	history HistoryService
	uistate UIStateService
	logger  *slog.Logger

	mu      sync.Mutex
	running bool
	last    *batch.Summary
}

func (h *batchHandler) Register(r chi.Router) {
	r.Post("/batch", h.handleStart)
	r.Get("/batch/status", h.handleStatus)
	r.Get("/history", h.handleHistory)
	r.Get("/documents/expanded", h.handleExpanded)
	r.Post("/documents/{id}/toggle-expand", h.handleToggleExpand)
}

// handleStart kicks off a batch run and returns immediately. The run is
// detached from the request context: closing the browser tab must not cancel
// in-flight judgments. Overlapping starts are rejected; the registry-level
// processing flag would make the second run a no-op anyway, but a clear 409
// beats a silently empty summary.
func (h *batchHandler) handleStart(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		httputil.WriteError(w, dErrors.New(dErrors.CodeConflict, "已有批量审核在进行中"))
		return
	}
	h.running = true
	h.mu.Unlock()

	ctx := context.WithoutCancel(r.Context())
	go func() {
		summary := h.batch.Run(ctx)
		h.mu.Lock()
		h.running = false
		h.last = &summary
		h.mu.Unlock()
	}()

	httputil.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

type batchStatusResponse struct {
	Running bool           `json:"running"`
	Last    *batch.Summary `json:"last,omitempty"`
}

func (h *batchHandler) handleStatus(w http.ResponseWriter, _ *http.Request) {
	h.mu.Lock()
	resp := batchStatusResponse{Running: h.running, Last: h.last}
	h.mu.Unlock()
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *batchHandler) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	events, err := h.history.List(r.Context(), limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list history failed", "error", err)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "无法读取历史记录"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"events": events})
}

func (h *batchHandler) handleExpanded(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"expanded": h.uistate.Expanded()})
}

func (h *batchHandler) handleToggleExpand(w http.ResponseWriter, r *http.Request) {
	h.uistate.Toggle(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}
