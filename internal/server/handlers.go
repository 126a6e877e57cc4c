package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/smartstudy/internal/models"
	"github.com/hyperjump/smartstudy/internal/pipeline"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*pipeline.App, bool) {
	app, ok := s.sessions.get(chi.URLParam(r, "id"))
	if !ok {
		s.respondError(w, http.StatusNotFound, "session not found")
	}
	return app, ok
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	id, _ := s.sessions.create()
	s.logger.Debug("session created", zap.String("id", id))
	s.respondJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	app, ok := s.session(w, r)
	if !ok {
		return
	}
	s.respondJSON(w, http.StatusOK, app.State())
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.sessions.remove(id) {
		s.respondError(w, http.StatusNotFound, "session not found")
		return
	}
	s.logger.Debug("session deleted", zap.String("id", id))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSelectFile(w http.ResponseWriter, r *http.Request) {
	app, ok := s.session(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "multipart field \"file\" is required")
		return
	}
	defer file.Close()
	content, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "failed to read file")
		return
	}
	sel := models.UploadSelection{FileName: header.Filename, Content: content}
	if raw := r.FormValue("summary_type"); raw != "" {
		st, err := models.ParseSummaryType(raw)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		sel.SummaryType = st
	}
	app.SelectFile(sel)
	s.respondJSON(w, http.StatusOK, app.State())
}

func (s *Server) handleSetSummaryType(w http.ResponseWriter, r *http.Request) {
	app, ok := s.session(w, r)
	if !ok {
		return
	}
	var req struct {
		SummaryType string `json:"summary_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	st, err := models.ParseSummaryType(req.SummaryType)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	app.SetSummaryType(st)
	s.respondJSON(w, http.StatusOK, map[string]string{"summary_type": string(st)})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	app, ok := s.session(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	done, err := app.StartUpload(s.runCtx)
	switch {
	case errors.Is(err, pipeline.ErrNoFileSelected):
		s.respondError(w, http.StatusBadRequest, pipeline.MsgSelectFile)
		return
	case errors.Is(err, pipeline.ErrUploadBusy):
		s.respondError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	go func() {
		out := <-done
		if out == nil {
			return
		}
		s.logger.Info("pipeline finished",
			zap.String("session", id),
			zap.Uint64("generation", out.Generation),
			zap.Bool("stale", out.Stale),
			zap.NamedError("outcome", out.Err()))
	}()
	s.respondJSON(w, http.StatusAccepted, map[string]string{"id": id, "status": "processing"})
}

func (s *Server) handleSpeak(w http.ResponseWriter, r *http.Request) {
	app, ok := s.session(w, r)
	if !ok {
		return
	}
	var req struct {
		Text string `json:"text"`
		Lang string `json:"lang"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		s.respondError(w, http.StatusBadRequest, "text is required")
		return
	}
	if req.Lang == "" {
		req.Lang = s.defaultLang
	}
	if err := app.Speak(r.Context(), req.Text, req.Lang); err != nil {
		if errors.Is(err, pipeline.ErrSpeechUnavailable) {
			s.respondError(w, http.StatusNotImplemented, err.Error())
			return
		}
		s.logger.Error("speak failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusAccepted, map[string]string{"status": "speaking", "lang": req.Lang})
}

func (s *Server) exportError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pipeline.ErrNothingToExport):
		s.respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, pipeline.ErrExportUnavailable):
		s.respondError(w, http.StatusNotImplemented, err.Error())
	default:
		s.logger.Error("export failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "export failed")
	}
}

func exportFileName(state *models.SessionState, ext string) string {
	base := strings.TrimSuffix(filepath.Base(state.FileName), filepath.Ext(state.FileName))
	if base == "" || base == "." {
		base = "study-notes"
	}
	return base + ext
}

func (s *Server) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	app, ok := s.session(w, r)
	if !ok {
		return
	}
	// Render to a temp file first so errors can still become JSON responses.
	tmp, err := os.CreateTemp("", "smartstudy-*.pdf")
	if err != nil {
		s.exportError(w, err)
		return
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()
	if err := app.ExportPDF(tmp); err != nil {
		s.exportError(w, err)
		return
	}
	s.serveFile(w, r, tmp.Name(), "application/pdf", exportFileName(app.State(), ".pdf"))
}

func (s *Server) handleExportDOCX(w http.ResponseWriter, r *http.Request) {
	app, ok := s.session(w, r)
	if !ok {
		return
	}
	dir, err := os.MkdirTemp("", "smartstudy-docx-*")
	if err != nil {
		s.exportError(w, err)
		return
	}
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "notes.docx")
	if err := app.ExportDOCX(path); err != nil {
		s.exportError(w, err)
		return
	}
	s.serveFile(w, r, path,
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		exportFileName(app.State(), ".docx"))
}

func (s *Server) serveFile(w http.ResponseWriter, r *http.Request, path, contentType, name string) {
	f, err := os.Open(path)
	if err != nil {
		s.exportError(w, err)
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		s.exportError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeContent(w, r, name, info.ModTime(), f)
}

func (s *Server) handleVoices(w http.ResponseWriter, r *http.Request) {
	voices := []models.Voice{}
	if s.voices != nil {
		if v := s.voices.Voices(); v != nil {
			voices = v
		}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"voices": voices})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.respondError(w, http.StatusNotImplemented, "history not enabled")
		return
	}
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}
	ctx := r.Context()
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		recs, err := s.history.List(ctx, limit)
		if err != nil {
			s.logger.Error("history list failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if recs == nil {
			recs = []*models.SessionRecord{}
		}
		s.respondJSON(w, http.StatusOK, map[string]interface{}{"records": recs})
		return
	}
	res, err := s.history.Search(ctx, q, limit)
	if err != nil {
		s.logger.Error("history search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{"sessions": s.sessions.len()}
	if s.status != nil {
		st, err := s.status(r.Context())
		if err != nil {
			s.logger.Error("status failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp["service"] = st
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
