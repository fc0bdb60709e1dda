package api

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"rebel-command/internal/game"
	"rebel-command/internal/session"
)

const (
	maxBodyBytes    = 4 << 10
	errGameNotFound = "Game not found"
	errBadRequest   = "malformed request body"
	errStorage      = "storage failure"
	errStaleSession = "session changed concurrently, retry"
	errNameRequired = "commander_name is required"
)

type createRequest struct {
	CommanderName string `json:"commander_name"`
}

type choiceRequest struct {
	Choice json.RawMessage `json:"choice"`
}

type server struct {
	sessions *session.Manager
	log      *zap.Logger
	origins  []string
}

type Option func(*server)

// WithOriginPatterns lists the cross-origin hosts allowed to open the
// websocket stream. Same-host pages are always allowed.
func WithOriginPatterns(patterns ...string) Option {
	return func(s *server) { s.origins = append(s.origins, patterns...) }
}

// NewMux wires the game routes onto a ServeMux and wraps it with request
// logging.
func NewMux(m *session.Manager, log *zap.Logger, opts ...Option) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	s := &server{sessions: m, log: log}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, envelope{Success: true})
	})
	mux.HandleFunc("POST /api/game/create", s.handleCreate)
	mux.HandleFunc("GET /api/game/{id}", s.handleGet)
	mux.HandleFunc("DELETE /api/game/{id}", s.handleDelete)
	mux.HandleFunc("POST /api/game/{id}/choice", s.handleChoice)
	mux.HandleFunc("GET /api/game/{id}/ws", s.handleStream)
	return s.logRequests(mux)
}

func (s *server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{Error: errBadRequest})
		return
	}
	rec, err := s.sessions.Create(r.Context(), req.CommanderName)
	if errors.Is(err, game.ErrEmptyName) {
		writeJSON(w, http.StatusBadRequest, envelope{Error: errNameRequired})
		return
	}
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	snap := buildSnapshot(s.sessions.Engine(), rec)
	snap.Message = s.sessions.Engine().Describe(rec.State).Description
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: snap})
}

func (s *server) handleGet(w http.ResponseWriter, r *http.Request) {
	rec, err := s.sessions.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: buildSnapshot(s.sessions.Engine(), rec)})
}

func (s *server) handleDelete(w http.ResponseWriter, r *http.Request) {
	rec, err := s.sessions.Abandon(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	snap := buildSnapshot(s.sessions.Engine(), rec)
	snap.Message = snap.EndingText
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: snap})
}

func (s *server) handleChoice(w http.ResponseWriter, r *http.Request) {
	var req choiceRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{Error: errBadRequest})
		return
	}
	status, env := s.applyChoice(r, r.PathValue("id"), choiceText(req.Choice))
	writeJSON(w, status, env)
}

// applyChoice is shared by the POST route and the websocket stream. Game-level
// rejections are successful responses carrying accepted=false.
func (s *server) applyChoice(r *http.Request, id, raw string) (int, envelope) {
	rec, msg, err := s.sessions.Choose(r.Context(), id, raw)
	switch {
	case err == nil:
		return http.StatusOK, envelope{Success: true, Data: withOutcome(buildSnapshot(s.sessions.Engine(), rec), msg, true)}
	case isGameRejection(err):
		return http.StatusOK, envelope{Success: true, Data: withOutcome(buildSnapshot(s.sessions.Engine(), rec), msg, false)}
	default:
		return s.storeErrorEnvelope(err)
	}
}

func isGameRejection(err error) bool {
	return errors.Is(err, game.ErrInvalidChoice) ||
		errors.Is(err, game.ErrGameOver) ||
		errors.Is(err, game.ErrRequirementNotMet) ||
		errors.Is(err, game.ErrInsufficientCredits) ||
		errors.Is(err, game.ErrInsufficientForce)
}

func (s *server) writeStoreError(w http.ResponseWriter, err error) {
	status, env := s.storeErrorEnvelope(err)
	writeJSON(w, status, env)
}

func (s *server) storeErrorEnvelope(err error) (int, envelope) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return http.StatusOK, envelope{Error: errGameNotFound}
	case errors.Is(err, session.ErrVersionConflict):
		return http.StatusConflict, envelope{Error: errStaleSession}
	default:
		s.log.Error("session store error", zap.Error(err))
		return http.StatusInternalServerError, envelope{Error: errStorage}
	}
}

// choiceText accepts a JSON number or a JSON string.
func choiceText(raw json.RawMessage) string {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}
	return strings.TrimSpace(string(raw))
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	if r.status == 0 {
		r.status = http.StatusSwitchingProtocols
	}
	return hj.Hijack()
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)))
	})
}
