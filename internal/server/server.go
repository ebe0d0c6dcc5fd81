// Package server exposes the interview analysis pipeline over HTTP.
//
// Endpoints:
//
//   - POST /v1/interviews      — upload a recording, receive the analysis
//   - GET  /v1/interviews      — recent persisted analyses
//   - POST /v1/questions       — answer an ad-hoc question about a transcript
//   - POST /v1/faq-audio       — synthesise an answer to an audio file
//   - GET  /v1/audio/{name}    — serve previously synthesised audio
package server

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/voxhire/voxhire/internal/pipeline"
	"github.com/voxhire/voxhire/internal/store"
)

// maxUploadBytes caps the accepted recording size (64 MiB).
const maxUploadBytes = 64 << 20

// Server handles the HTTP API. Safe for concurrent use.
type Server struct {
	pipeline  *pipeline.Pipeline
	logStore  *store.Store
	uploadDir string
	audioDir  string
	log       *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithStore enables GET /v1/interviews.
func WithStore(s *store.Store) Option {
	return func(srv *Server) {
		srv.logStore = s
	}
}

// WithLogger sets the request logger.
func WithLogger(log *slog.Logger) Option {
	return func(srv *Server) {
		srv.log = log
	}
}

// New creates a Server over the pipeline. uploadDir receives raw recordings;
// audioDir receives and serves synthesised audio. Both are created if
// missing.
func New(p *pipeline.Pipeline, uploadDir, audioDir string, opts ...Option) (*Server, error) {
	if uploadDir == "" {
		uploadDir = "uploads"
	}
	if audioDir == "" {
		audioDir = "tts_responses"
	}
	for _, dir := range []string{uploadDir, audioDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("server: create dir %q: %w", dir, err)
		}
	}
	srv := &Server{
		pipeline:  p,
		uploadDir: uploadDir,
		audioDir:  audioDir,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(srv)
	}
	return srv, nil
}

// Register adds all API routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/interviews", s.handleAnalyze)
	mux.HandleFunc("GET /v1/interviews", s.handleRecent)
	mux.HandleFunc("POST /v1/questions", s.handleQuestion)
	mux.HandleFunc("POST /v1/faq-audio", s.handleFAQAudio)
	mux.HandleFunc("GET /v1/audio/{name}", s.handleAudio)
}

// analysisResponse is the JSON body returned for an analysed interview.
type analysisResponse struct {
	Transcription    string `json:"transcription"`
	TranscriptFailed bool   `json:"transcript_failed"`
	CandidateName    string `json:"candidate_name"`
	Skills           any    `json:"skills"`
	YearsExperience  any    `json:"years_experience"`
	DesiredRole      string `json:"desired_role"`
	FAQ              any    `json:"faq"`
	SessionID        int64  `json:"session_id,omitempty"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	name := fmt.Sprintf("%s_%s",
		time.Now().UTC().Format("20060102150405.000000"),
		filepath.Base(header.Filename))
	name = strings.ReplaceAll(name, " ", "_")
	path := filepath.Join(s.uploadDir, name)

	dst, err := os.Create(path)
	if err != nil {
		s.log.Error("upload save failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		os.Remove(path)
		writeError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		writeError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}

	analysis, err := s.pipeline.Analyze(r.Context(), path)
	if err != nil {
		// Refinement infrastructure failure: the analysis itself is still
		// valid, return it with a warning log.
		s.log.Warn("analysis completed with refinement error", "error", err)
	}

	writeJSON(w, http.StatusOK, analysisResponse{
		Transcription:    analysis.Transcript,
		TranscriptFailed: analysis.TranscriptFailed,
		CandidateName:    analysis.Record.CandidateName,
		Skills:           analysis.Record.Skills,
		YearsExperience:  analysis.Record.YearsExperience,
		DesiredRole:      analysis.Record.DesiredRole,
		FAQ:              analysis.Record.FAQ,
		SessionID:        analysis.LogID,
	})
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	if s.logStore == nil {
		writeError(w, http.StatusNotFound, "interview log is not configured")
		return
	}
	entries, err := s.logStore.Recent(r.Context(), 50)
	if err != nil {
		s.log.Error("recent interviews query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list interviews")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"interviews": entries})
}

func (s *Server) handleQuestion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Transcription string `json:"transcription"`
		Question      string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Transcription == "" || req.Question == "" {
		writeError(w, http.StatusBadRequest, "transcription and question are required")
		return
	}

	answer, err := s.pipeline.AnswerQuestion(r.Context(), req.Transcription, req.Question)
	if err != nil {
		s.log.Error("question answering failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get an answer from the model")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"answer": answer})
}

func (s *Server) handleFAQAudio(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FAQ struct {
			Answer string `json:"answer"`
		} `json:"faq"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.FAQ.Answer == "" {
		writeError(w, http.StatusBadRequest, "faq.answer is required")
		return
	}

	name := fmt.Sprintf("tts_%s_faq.mp3", time.Now().UTC().Format("20060102150405.000000"))
	path := filepath.Join(s.audioDir, name)

	if err := s.pipeline.SpeakAnswer(r.Context(), req.FAQ.Answer, path); err != nil {
		s.log.Error("synthesis failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to generate audio")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"audio_url": "/v1/audio/" + name})
}

func (s *Server) handleAudio(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		writeError(w, http.StatusBadRequest, "invalid audio name")
		return
	}
	path := filepath.Join(s.audioDir, name)
	if _, err := os.Stat(path); err != nil {
		writeError(w, http.StatusNotFound, "audio file not found")
		return
	}
	w.Header().Set("Content-Type", "audio/mpeg")
	http.ServeFile(w, r, path)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error":"encoding failure"}`, http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
