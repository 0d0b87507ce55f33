package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/refinelab/refinery/pkg/formatting"
	"github.com/refinelab/refinery/pkg/handlers"
	"github.com/refinelab/refinery/pkg/routes"
	"github.com/refinelab/refinery/pkg/storage"
)

var errUnsupportedFile = errors.New("file must be csv, txt, or json")

// filesHandler is the upload and download boundary for process files.
// File format enforcement happens here, before anything reaches storage.
type filesHandler struct {
	store     storage.System
	logger    *slog.Logger
	maxUpload int64
}

func newFilesHandler(
	store storage.System,
	logger *slog.Logger,
	maxUpload int64,
) *filesHandler {
	return &filesHandler{
		store:     store,
		logger:    logger.With("handler", "files"),
		maxUpload: maxUpload,
	}
}

func (h *filesHandler) routes() routes.Group {
	return routes.Group{
		Prefix: "/files",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "", Handler: h.upload},
			{Method: "GET", Pattern: "/download/{key...}", Handler: h.download},
			{Method: "GET", Pattern: "/meta/{key...}", Handler: h.meta},
			{Method: "DELETE", Pattern: "/{key...}", Handler: h.remove},
		},
	}
}

// UploadResult is the response body for a successful upload.
type UploadResult struct {
	Name string `json:"name"`
	Key  string `json:"key"`
}

func (h *filesHandler) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	file, header, err := r.FormFile("file")
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}
	defer file.Close()

	ext := strings.TrimPrefix(strings.ToLower(path.Ext(header.Filename)), ".")
	if ext != "csv" && ext != "txt" && ext != "json" {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errUnsupportedFile)
		return
	}

	key := fmt.Sprintf("uploads/%s/%s", uuid.New(), path.Base(header.Filename))

	if err := h.store.Upload(r.Context(), key, file, contentTypeForExt(ext)); err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}

	h.logger.Info("file uploaded", "key", key, "size", formatting.FormatBytes(header.Size, 1))
	handlers.RespondJSON(w, http.StatusCreated, UploadResult{
		Name: header.Filename,
		Key:  key,
	})
}

func (h *filesHandler) download(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	body, err := h.store.Download(r.Context(), key)
	if err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}
	defer body.Close()

	ext := strings.TrimPrefix(strings.ToLower(path.Ext(key)), ".")
	w.Header().Set("Content-Type", contentTypeForExt(ext))
	w.Header().Set(
		"Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", path.Base(key)),
	)
	w.WriteHeader(http.StatusOK)
	io.Copy(w, body)
}

// FileMeta reports whether a stored file exists.
type FileMeta struct {
	Key    string `json:"key"`
	Exists bool   `json:"exists"`
}

func (h *filesHandler) meta(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	exists, err := h.store.Exists(r.Context(), key)
	if err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, FileMeta{Key: key, Exists: exists})
}

func (h *filesHandler) remove(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	if err := h.store.Delete(r.Context(), key); err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func contentTypeForExt(ext string) string {
	switch ext {
	case "json":
		return "application/json"
	case "csv":
		return "text/csv"
	default:
		return "text/plain"
	}
}
