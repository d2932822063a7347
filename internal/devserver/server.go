package devserver

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/five82/sommelier/internal/api"
)

// Server implements the tasting API endpoints the client consumes.
type Server struct {
	dir      *Directory
	registry Registry
	tokens   *Tokens
	ttl      time.Duration
	logger   *slog.Logger
}

// NewServer wires a server. ttl is the session lifetime without heartbeats.
func NewServer(dir *Directory, registry Registry, tokens *Tokens, ttl time.Duration, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{dir: dir, registry: registry, tokens: tokens, ttl: ttl, logger: logger}
}

// Handler returns the routed handler wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("GET /users", s.handleUsers)
	mux.HandleFunc("DELETE /users/{id}", s.handleDeleteUser)
	mux.HandleFunc("POST /users/{id}/login", s.handleLogin)
	mux.HandleFunc("POST /users/{id}/logout", s.handleLogout)
	mux.HandleFunc("POST /users/{id}/heartbeat", s.handleHeartbeat)

	mux.HandleFunc("GET /events", s.handleEvents)
	mux.HandleFunc("GET /events/{id}/wines", s.handleWines)
	mux.HandleFunc("GET /events/{id}/pagella", s.handleGetPagella)
	mux.HandleFunc("PUT /events/{id}/pagella", s.handlePutPagella)

	return s.withLogging(mux)
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(api.RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		writer.Header().Set(api.RequestIDHeader, requestID)
		writer.Header().Set("Cache-Control", "no-store")

		next.ServeHTTP(writer, r)

		s.logger.Info("request completed",
			"request_id", requestID,
			"device_id", r.Header.Get(api.DeviceHeader),
			"method", r.Method,
			"path", r.URL.Path,
			"status", writer.status,
			"duration_ms", time.Since(started).Milliseconds(),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

type dataResponse struct {
	Data any `json:"data"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type sessionRequest struct {
	SessionID string `json:"sessionId"`
}

type pagellaResponse struct {
	Content   string  `json:"content"`
	UpdatedAt *string `json:"updatedAt"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	users := s.dir.Users()
	if users == nil {
		users = []api.User{}
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: users})
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.dir.DeleteUser(id); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err := s.registry.RemoveAll(r.Context(), id); err != nil {
		s.logger.Error("failed to drop sessions of deleted user", "user_id", id, "error", err)
	}
	s.logger.Info("user deleted", "user_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	user, err := s.dir.User(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	unique, _ := strconv.ParseBool(r.Header.Get(api.UniqueSessionHeader))
	if unique {
		live, err := s.registry.Live(r.Context(), id)
		if err != nil {
			s.logger.Error("failed to count sessions", "user_id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "session registry unavailable")
			return
		}
		if live > 0 {
			s.logger.Info("login refused, session already active", "user_id", id, "live", live)
			writeError(w, http.StatusConflict, "user already signed in on another device")
			return
		}
	}

	token, claims, err := s.tokens.Issue(id)
	if err != nil {
		s.logger.Error("failed to issue token", "user_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "could not create session")
		return
	}
	if err := s.registry.Add(r.Context(), id, claims.JTI, s.ttl); err != nil {
		s.logger.Error("failed to register session", "user_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "could not create session")
		return
	}
	s.logger.Info("session opened", "user_id", id, "jti", claims.JTI, "unique", unique)
	writeJSON(w, http.StatusOK, api.LoginResponse{User: user, SessionID: token})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req sessionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if strings.TrimSpace(req.SessionID) == "" {
		if err := s.registry.RemoveAll(r.Context(), id); err != nil {
			s.logger.Error("failed to disconnect user", "user_id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "session registry unavailable")
			return
		}
		s.logger.Info("all sessions closed", "user_id", id)
		w.WriteHeader(http.StatusNoContent)
		return
	}

	claims, err := s.tokens.Parse(req.SessionID)
	if err == nil && claims.UserID == id {
		if err := s.registry.Remove(r.Context(), id, claims.JTI); err != nil {
			s.logger.Error("failed to close session", "user_id", id, "error", err)
		}
		s.logger.Info("session closed", "user_id", id, "jti", claims.JTI)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if _, err := s.dir.User(id); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	var req sessionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	claims, err := s.tokens.Parse(req.SessionID)
	if err != nil || claims.UserID != id {
		writeError(w, http.StatusUnauthorized, ErrInvalidToken.Error())
		return
	}
	live, err := s.registry.Touch(r.Context(), id, claims.JTI, s.ttl)
	if err != nil {
		s.logger.Error("failed to touch session", "user_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "session registry unavailable")
		return
	}
	if !live {
		writeError(w, http.StatusUnauthorized, "session expired")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	events := s.dir.Events()
	if events == nil {
		events = []api.Event{}
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: events})
}

func (s *Server) handleWines(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	wines, err := s.dir.Wines(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: wines})
}

func (s *Server) handleGetPagella(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	content, at, err := s.dir.Pagella(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	resp := pagellaResponse{Content: content}
	if !at.IsZero() {
		formatted := api.FormatTime(at)
		resp.UpdatedAt = &formatted
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: resp})
}

func (s *Server) handlePutPagella(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req api.SavePagellaRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := s.dir.User(req.UserID); err != nil {
		writeError(w, http.StatusBadRequest, "unknown userId")
		return
	}
	at, err := s.dir.SavePagella(id, req.Content, req.UserID)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.logger.Debug("pagella saved", "event_id", id, "user_id", req.UserID, "bytes", len(req.Content))
	writeJSON(w, http.StatusOK, dataResponse{Data: map[string]string{"updatedAt": api.FormatTime(at)}})
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: http.StatusText(status), Message: message})
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return errors.New("invalid JSON body")
	}
	return nil
}
