package server

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/algorisys-oss/python-opencv-katas/internal/executor"
	"github.com/algorisys-oss/python-opencv-katas/internal/storage"
)

const maxUploadBytes = 32 << 20

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// --- Execution handlers ---

type executeResponse struct {
	executor.Result
	RunID string `json:"run_id,omitempty"`
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		writeError(w, http.StatusBadRequest, "invalid form: "+err.Error())
		return
	}

	code := r.FormValue("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}

	req := executor.Request{Code: code}
	if file, header, err := r.FormFile("image"); err == nil {
		data, readErr := io.ReadAll(file)
		file.Close()
		if readErr != nil {
			writeError(w, http.StatusBadRequest, "reading upload: "+readErr.Error())
			return
		}
		if header.Filename != "" {
			req.Files = append(req.Files, executor.UploadedFile{Name: header.Filename, Data: data})
		}
	}

	// The "local" form field is accepted for frontend compatibility but the
	// route is decided by the capture sniff alone.
	_ = r.FormValue("local")

	start := time.Now()
	mode := storage.ModeSandboxed
	var res executor.Result
	if executor.NeedsDesktop(code) {
		mode = storage.ModeDesktop
		res = s.desktop.Launch(req)
	} else {
		res = s.sandbox.Run(r.Context(), req)
	}

	run := &storage.Run{
		ID:         uuid.New().String(),
		Mode:       mode,
		Status:     statusFor(mode, res),
		KataSlug:   r.FormValue("kata"),
		Code:       code,
		Logs:       res.Logs,
		Error:      res.Error,
		HasImage:   res.ImageB64 != "",
		DurationMs: time.Since(start).Milliseconds(),
	}
	// History is best-effort: a storage fault must not turn a finished run
	// into an error for the learner.
	if err := s.store.CreateRun(r.Context(), run); err != nil {
		log.Printf("recording run: %v", err)
	}

	writeJSON(w, http.StatusOK, executeResponse{Result: res, RunID: run.ID})
}

func statusFor(mode storage.RunMode, res executor.Result) storage.RunStatus {
	switch {
	case mode == storage.ModeDesktop && res.Error == "":
		return storage.StatusDesktop
	case res.Error == "":
		return storage.StatusOK
	case executor.IsTimeout(res.Error):
		return storage.StatusTimeout
	default:
		return storage.StatusError
	}
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.desktop.Registry().Stop())
}

// --- Kata catalog handlers ---

func (s *Server) handleListKatas(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.List())
}

func (s *Server) handleGetKata(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	k, ok := s.catalog.Get(slug)
	if !ok {
		writeError(w, http.StatusNotFound, "kata not found")
		return
	}
	writeJSON(w, http.StatusOK, k)
}

// --- Run history handlers ---

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	opts := storage.RunListOptions{}

	if mode := r.URL.Query().Get("mode"); mode != "" {
		opts.Mode = storage.RunMode(mode)
	}
	if status := r.URL.Query().Get("status"); status != "" {
		opts.Status = storage.RunStatus(status)
	}
	if limit := r.URL.Query().Get("limit"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil {
			opts.Limit = n
		}
	}
	if offset := r.URL.Query().Get("offset"); offset != "" {
		if n, err := strconv.Atoi(offset); err == nil {
			opts.Offset = n
		}
	}

	runs, err := s.store.ListRuns(r.Context(), opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if runs == nil {
		runs = []storage.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	run, err := s.store.GetRun(r.Context(), id)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, http.StatusNotFound, "run not found")
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.DeleteRun(r.Context(), id); err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, http.StatusNotFound, "run not found")
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHint(w http.ResponseWriter, r *http.Request) {
	if s.explainer == nil {
		writeError(w, http.StatusServiceUnavailable, "hints are not configured")
		return
	}

	id := chi.URLParam(r, "id")
	run, err := s.store.GetRun(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if run.Error == "" {
		writeError(w, http.StatusBadRequest, "run did not fail, nothing to explain")
		return
	}
	if run.Hint != "" {
		writeJSON(w, http.StatusOK, map[string]string{"hint": run.Hint})
		return
	}

	explanation, err := s.explainer.Explain(r.Context(), run.Code, run.Error)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "generating hint: "+err.Error())
		return
	}

	if err := s.store.SaveHint(r.Context(), run.ID, explanation); err != nil {
		log.Printf("saving hint for run %s: %v", run.ID, err)
	}
	writeJSON(w, http.StatusOK, map[string]string{"hint": explanation})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
