package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/go-chi/chi/v5"

	"diagnostics-dashboard/catalog"
	"diagnostics-dashboard/objstore"
	"diagnostics-dashboard/upload"
)

// writeJSON is a small helper to send JSON responses with status code.
func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Log.Error().Err(err).Msg("writeJSON")
	}
}

// serviceFromPath resolves {serviceID} against the catalog, writing a 404
// when it is unknown.
func (h *Handlers) serviceFromPath(w http.ResponseWriter, r *http.Request) (catalog.Service, bool) {
	id := strings.TrimSpace(chi.URLParam(r, "serviceID"))
	svc, ok := catalog.Lookup(id)
	if !ok {
		h.writeJSON(w, http.StatusNotFound, map[string]interface{}{
			"error": "service_not_found",
		})
		return catalog.Service{}, false
	}
	return svc, true
}

// HealthHandler implements GET /health.
func (h *Handlers) HealthHandler(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}

// serviceView is the JSON shape of a catalog entry plus its live upload flag.
type serviceView struct {
	catalog.Service
	InputDescription string `json:"input_description"`
	Uploading        bool   `json:"uploading"`
}

// ListServicesHandler implements GET /api/services.
func (h *Handlers) ListServicesHandler(w http.ResponseWriter, _ *http.Request) {
	flags := h.Uploader.Status().Snapshot()
	services := catalog.All()
	out := make([]serviceView, 0, len(services))
	for _, s := range services {
		out = append(out, serviceView{
			Service:          s,
			InputDescription: s.InputDescription(),
			Uploading:        flags[s.ID],
		})
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":       true,
		"services": out,
	})
}

// ServiceStatusHandler implements GET /api/services/{serviceID}/status.
func (h *Handlers) ServiceStatusHandler(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.serviceFromPath(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":         true,
		"service_id": svc.ID,
		"uploading":  h.Uploader.Status().Get(svc.ID),
	})
}

// UploadFilesHandler implements POST /api/services/{serviceID}/upload.
//
// It accepts one or more files in the multipart field "files" and writes them
// one after another to input/{serviceID}/{fileName}. The response carries one
// of two generic notifications; which file failed is never reported.
func (h *Handlers) UploadFilesHandler(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.serviceFromPath(w, r)
	if !ok {
		return
	}
	if !svc.AcceptsFiles() {
		h.writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":      "service_does_not_accept_files",
			"record_url": recordURL(svc.ID),
		})
		return
	}

	if err := r.ParseMultipartForm(h.Cfg.UploadMaxMemoryMB << 20); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error": "invalid_multipart",
		})
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		h.writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error": "no_files_provided",
		})
		return
	}

	files := make([]upload.File, 0, len(headers))
	for _, fh := range headers {
		fh := fh
		files = append(files, upload.File{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Open:        func() (io.ReadCloser, error) { return fh.Open() },
		})
	}

	// Once started, a batch runs to completion even if the client disconnects.
	ctx := context.WithoutCancel(r.Context())
	n, err := h.Uploader.Upload(ctx, svc.ID, files)
	if err != nil {
		h.writeJSON(w, http.StatusBadGateway, map[string]interface{}{
			"ok":           false,
			"service_id":   svc.ID,
			"error":        "upload_failed",
			"notification": n,
		})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":           true,
		"service_id":   svc.ID,
		"files":        len(files),
		"notification": n,
	})
}

// ListServiceFilesHandler implements GET /api/services/{serviceID}/files and
// lists what has been uploaded under input/{serviceID}/.
func (h *Handlers) ListServiceFilesHandler(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.serviceFromPath(w, r)
	if !ok {
		return
	}
	objects, err := h.Store.List(r.Context(), objstore.ServicePrefix(svc.ID))
	if err != nil {
		h.Log.Error().Err(err).Str("service_id", svc.ID).Msg("list service files")
		h.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"error": "server_error",
		})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":         true,
		"service_id": svc.ID,
		"files":      objects,
	})
}

// ListServiceBatchesHandler implements GET /api/services/{serviceID}/batches
// and returns recent upload batches from the journal.
func (h *Handlers) ListServiceBatchesHandler(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.serviceFromPath(w, r)
	if !ok {
		return
	}
	if h.Batches == nil {
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"error": "journal_disabled",
		})
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.writeJSON(w, http.StatusBadRequest, map[string]interface{}{
				"error": "invalid_limit",
			})
			return
		}
		limit = n
	}
	limit = clampBatchLimit(limit)

	batches, err := h.Batches.ListUploadBatchesByService(r.Context(), svc.ID, limit)
	if err != nil {
		h.Log.Error().Err(err).Str("service_id", svc.ID).Msg("list upload batches")
		h.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"error": "server_error",
		})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":         true,
		"service_id": svc.ID,
		"batches":    batches,
	})
}

// GetBatchHandler implements GET /api/batches/{batchID}.
func (h *Handlers) GetBatchHandler(w http.ResponseWriter, r *http.Request) {
	if h.Batches == nil {
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"error": "journal_disabled",
		})
		return
	}

	batchID := strings.TrimSpace(chi.URLParam(r, "batchID"))
	b, err := h.Batches.GetUploadBatch(r.Context(), batchID)
	if err != nil {
		h.Log.Error().Err(err).Str("batch_id", batchID).Msg("get upload batch")
		h.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"error": "server_error",
		})
		return
	}
	if b == nil {
		h.writeJSON(w, http.StatusNotFound, map[string]interface{}{
			"error": "batch_not_found",
		})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":    true,
		"batch": b,
	})
}

// baseName reduces a client-supplied file name to its last path element, the
// same way multipart file names arrive, so both upload paths produce keys
// directly under input/{serviceID}/. Unusable names become "".
func baseName(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, `\`, "/"))
	if name == "" {
		return ""
	}
	name = path.Base(name)
	switch name {
	case ".", "..", "/":
		return ""
	}
	return name
}

// UploadURLHandler implements POST /api/services/{serviceID}/upload-url.
// It returns a signed URL so the browser can PUT a file straight to
// input/{serviceID}/{file_name} in the bucket.
func (h *Handlers) UploadURLHandler(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.serviceFromPath(w, r)
	if !ok {
		return
	}
	if !svc.AcceptsFiles() {
		h.writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error": "service_does_not_accept_files",
		})
		return
	}

	var body struct {
		FileName    string `json:"file_name"`
		ContentType string `json:"content_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error": "invalid_json",
		})
		return
	}
	body.FileName = baseName(body.FileName)
	if body.FileName == "" {
		h.writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error": "file_name required",
		})
		return
	}

	if h.Bucket == "" || h.Cfg.SignedURLServiceAccountEmail == "" || h.Cfg.SignedURLPrivateKey == "" {
		h.Log.Warn().Str("service_id", svc.ID).Msg("signed upload URL requested but signing is not configured")
		h.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"error": "signed_url_not_configured",
		})
		return
	}

	objectPath := objstore.ObjectPath(svc.ID, body.FileName)
	signedURL, err := storage.SignedURL(h.Bucket, objectPath, &storage.SignedURLOptions{
		Scheme:         storage.SigningSchemeV4,
		Method:         http.MethodPut,
		Expires:        time.Now().Add(30 * time.Minute),
		ContentType:    body.ContentType,
		GoogleAccessID: h.Cfg.SignedURLServiceAccountEmail,
		PrivateKey:     []byte(h.Cfg.SignedURLPrivateKey),
	})
	if err != nil {
		h.Log.Error().Err(err).Str("object", objectPath).Msg("SignedURL")
		h.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"error": "failed_to_generate_upload_url",
		})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":        true,
		"uploadUrl": signedURL,
		"gsPath":    "gs://" + h.Bucket + "/" + objectPath,
		"path":      objectPath,
	})
}
