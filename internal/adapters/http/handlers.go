package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"petnotice/internal/application/orchestrators"
	noticeDomain "petnotice/internal/domain/notice"
)

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set), preventing XSS.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// renderMarkdownHTML converts markdown to HTML, falling back to the raw text
// when conversion fails.
func renderMarkdownHTML(md string) string {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return md
	}
	return buf.String()
}

// noticeJSON is the wire representation of a Notice.
type noticeJSON struct {
	ID        int64   `json:"id"`
	Title     string  `json:"title"`
	Content   string  `json:"content"`
	ImagePath *string `json:"image_path"`
	CreatedAt string  `json:"created_at"`
}

// toNoticeJSON maps a domain Notice to its wire form.
// image_path is JSON null when no image was attached.
func toNoticeJSON(n noticeDomain.Notice) noticeJSON {
	out := noticeJSON{
		ID:        n.ID,
		Title:     n.Title,
		Content:   n.Content,
		CreatedAt: n.CreatedAt.UTC().Format(time.RFC3339),
	}
	if n.HasImage() {
		p := n.ImagePath
		out.ImagePath = &p
	}
	return out
}

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// jsonError writes a JSON error body with a human-readable message.
// Internal details never reach the client; callers log them separately.
func jsonError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// internalError logs the real error and returns a generic message to the client.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	jsonError(w, http.StatusInternalServerError, "internal server error")
}

// requestError carries a client-facing failure from the create pipeline.
type requestError struct {
	status int
	msg    string
}

// processCreate validates a multipart create submission, stores the image (if
// any), and persists the notice. Shared by the JSON API and the board form.
// Validation failures happen before any side effect; a store failure after a
// successful image write removes the just-written file so the upload dir never
// holds orphans.
func processCreate(r *http.Request) (noticeDomain.Notice, *requestError) {
	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
		return noticeDomain.Notice{}, &requestError{http.StatusBadRequest, "request too large or malformed"}
	}

	title := strings.TrimSpace(r.FormValue("title"))
	content := strings.TrimSpace(r.FormValue("content"))
	if title == "" || content == "" {
		return noticeDomain.Notice{}, &requestError{http.StatusBadRequest, "title and content are required"}
	}

	// Validate and store the image before touching the database; the public
	// path has to exist by the time the row referencing it is written.
	var imagePath, storedName string
	if file, header, err := r.FormFile("image"); err == nil {
		defer file.Close()
		name, upErr := saveUploadedImage(file, header)
		if upErr != nil {
			var invalid *invalidUploadError
			if errors.As(upErr, &invalid) {
				return noticeDomain.Notice{}, &requestError{http.StatusBadRequest, invalid.Error()}
			}
			slog.Error("upload_save_failed", "error", upErr.Error())
			return noticeDomain.Notice{}, &requestError{http.StatusInternalServerError, "failed to store image"}
		}
		storedName = name
		imagePath = "/uploads/" + name
	}

	n, err := orchestrators.ExecuteCreateNotice(r.Context(), orchestrators.CreateNoticeInput{
		Title:     title,
		Content:   content,
		ImagePath: imagePath,
	}, orchestrators.CreateNoticeDeps{
		NoticeStore: stores.NoticeStore,
		EmailSender: emailSender,
		NotifyTo:    notifyTo,
		RenderHTML:  renderMarkdownHTML,
	})
	if err != nil {
		if errors.Is(err, noticeDomain.ErrEmptyTitle) || errors.Is(err, noticeDomain.ErrEmptyContent) {
			return noticeDomain.Notice{}, &requestError{http.StatusBadRequest, err.Error()}
		}
		// The row was never written; drop the stored image so no orphan remains.
		if storedName != "" {
			if rmErr := os.Remove(filepath.Join(uploadDir, storedName)); rmErr != nil {
				slog.Warn("orphan_upload_cleanup_failed", "file", storedName, "error", rmErr.Error())
			}
		}
		slog.Error("notice_create_failed", "error", err.Error())
		return noticeDomain.Notice{}, &requestError{http.StatusInternalServerError, "failed to create notice"}
	}
	return n, nil
}

// handleNotices handles GET/POST for /notices.
func handleNotices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method == "GET" {
		results, err := stores.NoticeStore.ListAll(ctx)
		if err != nil {
			internalError(w, err)
			return
		}
		list := make([]noticeJSON, 0, len(results))
		for _, n := range results {
			list = append(list, toNoticeJSON(n))
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "notices": list})
		return
	}

	if r.Method == "POST" {
		r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes+maxFormOverheadBytes)
		n, reqErr := processCreate(r)
		if reqErr != nil {
			jsonError(w, reqErr.status, reqErr.msg)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "notice": toNoticeJSON(n)})
		return
	}

	w.WriteHeader(http.StatusMethodNotAllowed)
}

// handleNoticeByID handles GET /notices/{id}.
// A non-integer id is a client error, never forwarded to the store.
func handleNoticeByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	raw := strings.TrimPrefix(r.URL.Path, "/notices/")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "notice id must be an integer")
		return
	}

	n, err := stores.NoticeStore.GetByID(r.Context(), id)
	if errors.Is(err, noticeDomain.ErrNotFound) {
		jsonError(w, http.StatusNotFound, "notice not found")
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "notice": toNoticeJSON(n)})
}

// handleHealth handles GET /healthz.
func handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if dbPinger != nil {
		if err := dbPinger(); err != nil {
			slog.Error("health_db_unreachable", "error", err.Error())
			jsonError(w, http.StatusInternalServerError, "database unreachable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handlePerf handles GET /perf: a JSON snapshot of request/query timings over
// the last 15 minutes.
func handlePerf(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if perfCollector == nil {
		jsonError(w, http.StatusNotFound, "perf collection disabled")
		return
	}
	snap := perfCollector.ComputeSnapshot(timeNow().Add(-15*time.Minute), 10)
	writeJSON(w, http.StatusOK, snap)
}
