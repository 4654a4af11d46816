package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"safexchange/internal/objstore"
)

// allowedExtensions is the office-document allowlist for uploads.
var allowedExtensions = map[string]bool{
	".pptx": true,
	".docx": true,
	".xlsx": true,
}

func allowedFile(filename string) bool {
	return allowedExtensions[strings.ToLower(path.Ext(filename))]
}

// cleanFilename rejects anything that is not a bare file name. Object keys
// are the uploaded names, so path separators must never reach the bucket.
func cleanFilename(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" || name != path.Base(name) || strings.ContainsAny(name, "/\\") {
		return "", false
	}
	if name == "." || name == ".." {
		return "", false
	}
	return name, true
}

type uploadResponse struct {
	Message  string `json:"message"`
	Filename string `json:"filename"`
}

// uploadHandler streams the multipart "file" field to object storage under
// its original filename. Ops only (enforced by the route middleware).
func (s *Server) uploadHandler(w http.ResponseWriter, r *http.Request) {
	mr, err := r.MultipartReader()
	if err != nil {
		http.Error(w, "bad multipart", http.StatusBadRequest)
		return
	}

	var filePart io.Reader
	var filename, contentType string

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			http.Error(w, "bad multipart", http.StatusBadRequest)
			return
		}
		defer func() { _ = part.Close() }()

		if part.FormName() != "file" {
			continue
		}

		filePart = part
		filename = part.FileName()
		contentType = part.Header.Get("Content-Type")
		break
	}

	if filePart == nil {
		http.Error(w, "missing file", http.StatusBadRequest)
		return
	}

	name, ok := cleanFilename(filename)
	if !ok {
		http.Error(w, "bad filename", http.StatusBadRequest)
		return
	}
	if !allowedFile(name) {
		http.Error(w, "file type not allowed", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	if err := s.cfg.Objects.Put(ctx, name, filePart, -1, contentType); err != nil {
		logError(r, "upload_failed", err)
		http.Error(w, "upload failed", http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		Message:  "File uploaded successfully",
		Filename: name,
	})
}

type listFilesResponse struct {
	Files []string `json:"files"`
}

func (s *Server) listFilesHandler(w http.ResponseWriter, r *http.Request) {
	keys, err := s.cfg.Objects.List(r.Context())
	if err != nil {
		logError(r, "list_failed", err)
		http.Error(w, "storage error", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, listFilesResponse{Files: keys})
}

func (s *Server) deleteFileHandler(w http.ResponseWriter, r *http.Request) {
	name, ok := cleanFilename(mux.Vars(r)["name"])
	if !ok {
		http.Error(w, "bad filename", http.StatusBadRequest)
		return
	}

	if err := s.cfg.Objects.Delete(r.Context(), name); err != nil {
		if errors.Is(err, objstore.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		logError(r, "delete_failed", err)
		http.Error(w, "storage error", http.StatusBadGateway)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
