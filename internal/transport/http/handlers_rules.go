package transporthttp

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"docaudit/internal/export"
	"docaudit/internal/rules"
	dErrors "docaudit/pkg/domain-errors"
	"docaudit/pkg/platform/httputil"
)

// RuleService is the slice of the rule registry the transport needs.
type RuleService interface {
	Add(text string, category rules.Category)
	Remove(id string)
	Toggle(id string)
	ImportBatch(rows []rules.ImportRow) int
	List() []rules.Rule
}

type ruleHandler struct {
	rules  RuleService
	logger *slog.Logger
}

func (h *ruleHandler) Register(r chi.Router) {
	r.Get("/rules", h.handleList)
	r.Post("/rules", h.handleAdd)
	r.Post("/rules/{id}/toggle", h.handleToggle)
	r.Delete("/rules/{id}", h.handleRemove)
	r.Post("/rules/import", h.handleImport)
	r.Get("/rules/export", h.handleExport)
}

func (h *ruleHandler) handleList(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"rules": h.rules.List()})
}

type addRuleRequest struct {
	Text     string `json:"text"`
	Category string `json:"category"`
}

// handleAdd accepts either the enum value ("text_editing") or the zh display
// label ("文字编辑") as the category; anything unrecognized lands in the
// catch-all bucket, same as imports.
func (h *ruleHandler) handleAdd(w http.ResponseWriter, r *http.Request) {
	var req addRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "无法解析请求"))
		return
	}
	if req.Text == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidationFailed, "规则内容不能为空"))
		return
	}

	category := rules.Category(req.Category)
	switch category {
	case rules.CategoryTextEditing, rules.CategoryWorkflowLogic,
		rules.CategoryResultDetermination, rules.CategorySpecialRules:
	default:
		category = rules.ParseCategoryLabel(req.Category)
	}

	h.rules.Add(req.Text, category)
	w.WriteHeader(http.StatusCreated)
}

func (h *ruleHandler) handleToggle(w http.ResponseWriter, r *http.Request) {
	h.rules.Toggle(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

func (h *ruleHandler) handleRemove(w http.ResponseWriter, r *http.Request) {
	h.rules.Remove(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

// handleImport takes one file under the "file" field. The import is all or
// nothing: a bad header or too few rows rejects the whole file and the
// registry stays untouched.
func (h *ruleHandler) handleImport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "无法解析上传请求"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "请求中没有文件"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "无法读取文件"))
		return
	}

	rows, err := rules.ParseImport(header.Filename, data)
	if err != nil {
		h.logger.WarnContext(ctx, "rule import rejected",
			"file", header.Filename, "error", err)
		httputil.WriteError(w, err)
		return
	}

	imported := h.rules.ImportBatch(rows)
	h.logger.InfoContext(ctx, "rules imported",
		"file", header.Filename, "count", imported)
	httputil.WriteJSON(w, http.StatusOK, map[string]int{"imported": imported})
}

func (h *ruleHandler) handleExport(w http.ResponseWriter, r *http.Request) {
	list := h.rules.List()

	var (
		data     []byte
		err      error
		filename string
		mime     string
	)
	switch r.URL.Query().Get("format") {
	case "xlsx":
		data, err = export.RulesXLSX(list)
		filename = "rules.xlsx"
		mime = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		data, err = export.RulesCSV(list)
		filename = "rules.csv"
		mime = "text/csv; charset=utf-8"
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "rule export failed", "error", err)
		httputil.WriteError(w, err)
		return
	}
	writeAttachment(w, filename, mime, data)
}
