package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
)

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleAnalyze accepts a score upload and starts an analysis job.
// The file field is "score"; "key" optionally names the key signature.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	maxBytes := int64(s.config.MaxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		s.writeError(w, http.StatusBadRequest, "upload too large or malformed")
		return
	}

	file, header, err := r.FormFile("score")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "missing score file; upload a .mid, .midi or .json score")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	switch ext {
	case ".mid", ".midi", ".json":
	default:
		s.writeError(w, http.StatusBadRequest, "unsupported format; upload a .mid, .midi or .json score")
		return
	}

	job, err := s.jobs.Create()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to create job")
		return
	}

	inputPath := job.Work.Path("input" + ext)
	dst, err := os.Create(inputPath)
	if err != nil {
		s.jobs.Remove(job.ID)
		s.writeError(w, http.StatusInternalServerError, "failed to save file")
		return
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		s.jobs.Remove(job.ID)
		s.writeError(w, http.StatusInternalServerError, "failed to save file")
		return
	}
	dst.Close()

	job.InputPath = inputPath
	job.Filename = header.Filename
	job.Key = r.FormValue("key")

	go s.jobs.Process(job)

	writeJSON(w, http.StatusAccepted, map[string]string{
		"id":       job.ID,
		"status":   string(job.Status()),
		"filename": job.Filename,
	})
}

// handleStatus streams job progress as server-sent events until the job
// reaches a terminal state or the client disconnects.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	job := s.jobs.Get(chi.URLParam(r, "id"))
	if job == nil {
		s.writeError(w, http.StatusNotFound, "unknown job")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case update, open := <-job.Updates:
			if !open {
				// Updates closes when processing ends.
				fmt.Fprintf(w, "event: done\n")
				fmt.Fprintf(w, "data: %s\n\n", job.Status())
				flusher.Flush()
				return
			}
			fmt.Fprintf(w, "event: progress\n")
			fmt.Fprintf(w, "data: %s\n\n", update)
			flusher.Flush()
		}
	}
}

// handleResult returns the finished analysis.
func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	job := s.jobs.Get(chi.URLParam(r, "id"))
	if job == nil {
		s.writeError(w, http.StatusNotFound, "unknown job")
		return
	}

	switch job.Status() {
	case StatusComplete:
		writeJSON(w, http.StatusOK, job.Result())
	case StatusFailed:
		s.writeError(w, http.StatusUnprocessableEntity, job.Err())
	default:
		s.writeError(w, http.StatusConflict, "job still processing")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
