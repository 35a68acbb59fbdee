package transporthttp

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"docaudit/internal/documents"
	"docaudit/internal/export"
	"docaudit/internal/history"
	dErrors "docaudit/pkg/domain-errors"
	"docaudit/pkg/platform/httputil"
)

// Upload size cap, applied to the whole multipart request.
const maxUploadBytes = 64 << 20

// DocumentService is the slice of the document registry the transport needs.
type DocumentService interface {
	Upsert(name string, source []byte, overwrite bool) (documents.Document, error)
	Remove(id string)
	Get(id string) (documents.Document, bool)
	List() []documents.Document
}

// UIStateService exposes expansion state for the findings view.
type UIStateService interface {
	Toggle(docID string)
	Forget(docID string)
	Expanded() []string
}

// HistoryService records and lists pipeline events.
type HistoryService interface {
	Record(event history.Event)
	List(ctx context.Context, limit int) ([]history.Event, error)
}

type documentHandler struct {
	documents DocumentService
	uistate   UIStateService
	history   HistoryService
	logger    *slog.Logger
}

func (h *documentHandler) Register(r chi.Router) {
	r.Post("/documents", h.handleUpload)
	r.Get("/documents", h.handleList)
	r.Delete("/documents/{id}", h.handleRemove)
	r.Get("/documents/export", h.handleVerdictExport)
}

type uploadedFile struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	SizeBytes int    `json:"size_bytes"`
}

type rejectedFile struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

type uploadResponse struct {
	Uploaded []uploadedFile `json:"uploaded"`
	Rejected []rejectedFile `json:"rejected,omitempty"`
}

// handleUpload accepts one or more files under the "files" field. Name
// conflicts with existing documents are rejected unless overwrite=true, so
// the UI can re-submit after the operator confirms. A name appearing twice
// within the same request is deduplicated last-wins.
func (h *documentHandler) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "无法解析上传请求"))
		return
	}
	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "请求中没有文件"))
		return
	}
	overwrite, _ := strconv.ParseBool(r.FormValue("overwrite"))

	var resp uploadResponse
	seen := make(map[string]bool, len(files))
	for _, header := range files {
		name := header.Filename

		file, err := header.Open()
		if err != nil {
			resp.Rejected = append(resp.Rejected, rejectedFile{Name: name, Error: "无法读取文件"})
			continue
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			resp.Rejected = append(resp.Rejected, rejectedFile{Name: name, Error: "无法读取文件"})
			continue
		}

		doc, err := h.documents.Upsert(name, data, overwrite || seen[name])
		if err != nil {
			h.logger.WarnContext(ctx, "upload rejected", "file", name, "error", err)
			resp.Rejected = append(resp.Rejected, rejectedFile{Name: name, Error: err.Error()})
			continue
		}
		if seen[name] {
			// Last wins within one request; drop the superseded entry.
			for i := range resp.Uploaded {
				if resp.Uploaded[i].Name == name {
					resp.Uploaded = append(resp.Uploaded[:i], resp.Uploaded[i+1:]...)
					break
				}
			}
		}
		seen[name] = true
		resp.Uploaded = append(resp.Uploaded, uploadedFile{
			ID: doc.ID, Name: doc.Name, SizeBytes: doc.SizeBytes,
		})
		h.history.Record(history.Event{
			DocumentID:   doc.ID,
			DocumentName: doc.Name,
			Action:       history.ActionUploaded,
		})
	}

	status := http.StatusOK
	if len(resp.Uploaded) == 0 {
		// Every file was rejected; the common case is a name conflict the
		// operator still has to confirm.
		status = http.StatusConflict
	}
	httputil.WriteJSON(w, status, resp)
}

type documentView struct {
	documents.Document
	Expanded bool `json:"expanded"`
}

func (h *documentHandler) handleList(w http.ResponseWriter, _ *http.Request) {
	expanded := make(map[string]bool)
	for _, id := range h.uistate.Expanded() {
		expanded[id] = true
	}

	list := h.documents.List()
	views := make([]documentView, len(list))
	for i, doc := range list {
		views[i] = documentView{Document: doc, Expanded: expanded[doc.ID]}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"documents": views})
}

func (h *documentHandler) handleRemove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc, ok := h.documents.Get(id)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "文档不存在"))
		return
	}

	h.documents.Remove(id)
	h.uistate.Forget(id)
	h.history.Record(history.Event{
		DocumentID:   doc.ID,
		DocumentName: doc.Name,
		Action:       history.ActionRemoved,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *documentHandler) handleVerdictExport(w http.ResponseWriter, r *http.Request) {
	docs := h.documents.List()

	var (
		data     []byte
		err      error
		filename string
		mime     string
	)
	switch r.URL.Query().Get("format") {
	case "xlsx":
		data, err = export.VerdictXLSX(docs)
		filename = "verdicts.xlsx"
		mime = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		data, err = export.VerdictCSV(docs)
		filename = "verdicts.csv"
		mime = "text/csv; charset=utf-8"
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "verdict export failed", "error", err)
		httputil.WriteError(w, err)
		return
	}
	writeAttachment(w, filename, mime, data)
}

func writeAttachment(w http.ResponseWriter, filename, mime string, data []byte) {
	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
