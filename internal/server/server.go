// Package server exposes the analysis pipeline and chat sessions over
// HTTP for the web front end.
package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/empathlab/empath-gateway/internal/config"
	"github.com/empathlab/empath-gateway/internal/emotion"
	"github.com/empathlab/empath-gateway/internal/metrics"
	"github.com/empathlab/empath-gateway/internal/pipeline"
	"github.com/empathlab/empath-gateway/internal/sentiment"
	"github.com/empathlab/empath-gateway/internal/session"
)

// Processor runs the full analysis pipeline for one artifact.
type Processor interface {
	Process(ctx context.Context, sessionKey string, art pipeline.Artifact) (*pipeline.Result, error)
}

// Transcriber converts an uploaded audio file to text (chat uploads skip
// the facial-emotion stage and only need this).
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// Replier generates an assistant reply from the fused signal.
type Replier interface {
	Reply(ctx context.Context, emotions emotion.Profile, sent sentiment.Label, text string, history []session.Turn) string
}

// Server is the HTTP layer over the pipeline and session store.
type Server struct {
	cfg         *config.Config
	processor   Processor
	transcriber Transcriber
	scorer      *sentiment.Scorer
	replier     Replier
	store       *session.Store
	httpServer  *http.Server
	sweeper     *Sweeper
	startTime   time.Time
	logger      *slog.Logger
}

// ErrorResponse is the JSON error shape. Trace is filled only when
// SHOW_TRACE is enabled.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
	Trace  string `json:"trace,omitempty"`
}

// ChatResponse is returned by POST /chat and the websocket endpoint.
type ChatResponse struct {
	Session string         `json:"session"`
	Reply   string         `json:"reply"`
	History []session.Turn `json:"history"`
}

// HistoryResponse is returned by GET /chat.
type HistoryResponse struct {
	Session string         `json:"session"`
	History []session.Turn `json:"history"`
}

// HealthResponse is the health check shape.
type HealthResponse struct {
	Status    string `json:"status"`
	Uptime    string `json:"uptime"`
	Timestamp string `json:"timestamp"`
}

// New creates the HTTP server and its routes.
func New(cfg *config.Config, p Processor, t Transcriber, scorer *sentiment.Scorer, r Replier, store *session.Store, logger *slog.Logger) *Server {
	s := &Server{
		cfg:         cfg,
		processor:   p,
		transcriber: t,
		scorer:      scorer,
		replier:     r,
		store:       store,
		sweeper:     NewSweeper(cfg.Server.UploadsDir, cfg.Server.UploadRetention, logger),
		startTime:   time.Now(),
		logger:      logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/record", s.recordHandler)
	mux.HandleFunc("/chat", s.chatHandler)
	mux.HandleFunc("/uploads/", s.uploadsHandler)
	mux.HandleFunc("/ws", s.wsHandler)
	mux.HandleFunc("/healthz", s.healthHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/", s.staticHandler)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      s.instrument(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute, // pipeline calls block on remote jobs
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start starts the HTTP server and the uploads sweeper.
func (s *Server) Start() error {
	if err := os.MkdirAll(s.cfg.Server.UploadsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create uploads dir: %w", err)
	}
	s.sweeper.Start()
	s.logger.Info("HTTP server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server and stops the sweeper.
func (s *Server) Shutdown(ctx context.Context) error {
	s.sweeper.Stop()
	return s.httpServer.Shutdown(ctx)
}

// instrument records request metrics around the mux.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		endpoint := routeLabel(r.URL.Path)
		metrics.RequestCount.WithLabelValues(r.Method, endpoint, strconv.Itoa(sw.status)).Inc()
		metrics.RequestDuration.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())
	})
}

// routeLabel collapses parameterized paths so metric cardinality stays
// bounded.
func routeLabel(path string) string {
	if strings.HasPrefix(path, "/uploads/") {
		return "/uploads/:name"
	}
	switch path {
	case "/record", "/chat", "/ws", "/healthz", "/metrics":
		return path
	}
	return "/static"
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Hijack exposes the wrapped writer's connection so websocket upgrades
// work through the metrics middleware.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hj.Hijack()
}

// recordHandler accepts a multipart recording, stores it under the
// uploads directory, and runs the full pipeline on it.
func (s *Server) recordHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stored, err := s.saveUpload(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "No file part", err)
		return
	}
	s.logger.Info("saved upload", "file", stored)

	sessionKey := r.FormValue("session")
	if sessionKey == "" {
		sessionKey = newSessionKey()
	}

	dest := filepath.Join(s.cfg.Server.UploadsDir, stored)
	res, err := s.processor.Process(r.Context(), sessionKey, pipeline.Artifact{
		VideoPath: dest,
		AudioPath: dest,
	})
	if err != nil {
		s.logger.Error("analysis failed", "file", stored, "error", err)
		status := http.StatusInternalServerError
		var serr *pipeline.StageError
		if errors.As(err, &serr) && serr.Stage == pipeline.StageReceived {
			status = http.StatusBadRequest
		}
		s.writeError(w, status, "analysis failed", err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// chatHandler serves both GET (history) and POST (new message).
func (s *Server) chatHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.chatHistoryHandler(w, r)
	case http.MethodPost:
		s.chatMessageHandler(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) chatHistoryHandler(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("session")
	if key == "" {
		key = newSessionKey()
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Session: key, History: s.store.History(key)})
}

func (s *Server) chatMessageHandler(w http.ResponseWriter, r *http.Request) {
	key := r.FormValue("session")
	if key == "" {
		key = r.URL.Query().Get("session")
	}
	if key == "" {
		key = newSessionKey()
	}

	userText := r.FormValue("text")

	// A chat upload is transcribed and sentiment-scored only. Facial
	// emotion analysis is deliberately skipped for chat replies. A request
	// with no file at all is fine; a file that failed to store is not.
	stored, err := s.saveUpload(r)
	switch {
	case err == nil:
		dest := filepath.Join(s.cfg.Server.UploadsDir, stored)
		s.logger.Info("saved chat upload", "file", stored)

		transcript, err := s.transcriber.Transcribe(r.Context(), dest)
		if err != nil {
			s.logger.Error("chat analysis failed", "file", stored, "error", err)
			s.writeError(w, http.StatusInternalServerError, "analysis failed", err)
			return
		}
		sent := s.scorer.Score(transcript)

		metaTurn := session.NewTurn(session.RoleSystem, fmt.Sprintf("[Video analysis] sentiment=%s", sent))
		metaTurn.Meta = &session.Meta{Sentiment: string(sent), Emotions: []string{}}
		s.store.Append(key, metaTurn)

		if userText == "" {
			userText = transcript
		}
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		// text-only message
	default:
		s.logger.Error("failed to store chat upload", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to store upload", err)
		return
	}

	if userText == "" {
		s.writeError(w, http.StatusBadRequest, "no text or file provided", nil)
		return
	}

	reply := s.converse(r.Context(), key, userText)
	writeJSON(w, http.StatusOK, ChatResponse{
		Session: key,
		Reply:   reply,
		History: s.store.History(key),
	})
}

// converse appends the user turn, generates the reply using the most
// recent analysis metadata, appends the assistant turn, and returns the
// reply text.
func (s *Server) converse(ctx context.Context, key, userText string) string {
	history := s.store.History(key)
	s.store.Append(key, session.NewTurn(session.RoleUser, userText))

	sent := sentiment.Neutral
	var emotions emotion.Profile
	if meta := s.store.LastMeta(key); meta != nil {
		sent = sentiment.Label(meta.Sentiment)
		emotions = emotion.Profile(meta.Emotions)
	}

	reply := s.replier.Reply(ctx, emotions, sent, userText, history)
	s.store.Append(key, session.NewTurn(session.RoleAssistant, reply))
	return reply
}

// uploadsHandler serves a previously uploaded file by stored name.
func (s *Server) uploadsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	name := sanitizeFilename(strings.TrimPrefix(r.URL.Path, "/uploads/"))
	if name == "" {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, filepath.Join(s.cfg.Server.UploadsDir, name))
}

// healthHandler reports liveness.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Uptime:    time.Since(s.startTime).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// staticHandler serves the front end with an index.html fallback for
// unmatched paths.
func (s *Server) staticHandler(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if path == "/" {
		path = "/index.html"
	}
	target := filepath.Join(s.cfg.Server.StaticDir, filepath.Clean(path))
	if info, err := os.Stat(target); err == nil && !info.IsDir() {
		http.ServeFile(w, r, target)
		return
	}
	http.ServeFile(w, r, filepath.Join(s.cfg.Server.StaticDir, "index.html"))
}

// saveUpload stores the request's multipart "file" field under a
// timestamp-prefixed sanitized name and returns the stored name.
func (s *Server) saveUpload(r *http.Request) (string, error) {
	if err := r.ParseMultipartForm(64 << 20); err != nil {
		return "", fmt.Errorf("no multipart body: %w", err)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return "", fmt.Errorf("no file field: %w", err)
	}
	defer file.Close()

	name := sanitizeFilename(header.Filename)
	if name == "" {
		return "", fmt.Errorf("no selected file")
	}
	stored := fmt.Sprintf("%d-%s", time.Now().UnixMilli(), name)

	if err := os.MkdirAll(s.cfg.Server.UploadsDir, 0o755); err != nil {
		return "", err
	}
	dest, err := os.Create(filepath.Join(s.cfg.Server.UploadsDir, stored))
	if err != nil {
		return "", err
	}
	defer dest.Close()

	if _, err := io.Copy(dest, file); err != nil {
		return "", err
	}
	return stored, nil
}

// sanitizeFilename keeps only the base name and characters safe to put on
// disk, the way werkzeug-style upload handling does.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "." || out == ".." {
		return ""
	}
	return out
}

func newSessionKey() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 10)
}

// writeError sends the JSON error shape, attaching a trace when enabled.
func (s *Server) writeError(w http.ResponseWriter, status int, msg string, err error) {
	resp := ErrorResponse{Error: msg}
	if err != nil {
		resp.Detail = err.Error()
	}
	if s.cfg.Server.ShowTrace && status >= http.StatusInternalServerError {
		resp.Trace = string(debug.Stack())
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
