package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/ent0n29/chatmem/internal/chat"
	"github.com/ent0n29/chatmem/internal/config"
	"github.com/ent0n29/chatmem/internal/conversation"
	"github.com/ent0n29/chatmem/internal/identity"
	"github.com/ent0n29/chatmem/internal/observability"
	"github.com/ent0n29/chatmem/internal/persona"
)

type Server struct {
	cfg      config.Config
	chat     *chat.Service
	visitors *identity.Tracker
	metrics  *observability.Metrics
	upgrader websocket.Upgrader
}

func New(cfg config.Config, svc *chat.Service, metrics *observability.Metrics) *Server {
	if svc == nil {
		svc = chat.NewService(chat.DefaultConfig(), nil, nil, nil, nil, metrics)
	}
	return &Server{
		cfg:      cfg,
		chat:     svc,
		visitors: identity.NewTracker(),
		metrics:  metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Only allow browser websocket connections from the same origin so
				// other sites cannot chat as the cookie user.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		s.metrics.Handler().ServeHTTP(w, r)
	})

	r.Group(func(r chi.Router) {
		r.Use(identity.Middleware(s.visitors, s.cfg.DevMode))

		r.Get("/v1/me", s.handleMe)
		r.Get("/v1/personas", s.handlePersonas)
		r.Get("/v1/models", s.handleModels)
		r.Get("/v1/perf/latency", s.handlePerfLatency)

		r.Post("/v1/chat", s.handleChat)
		r.Get("/v1/chat/history", s.handleChatHistory)
		r.Post("/v1/chat/reset", s.handleChatReset)
		r.Get("/v1/chat/ws", s.handleChatWS)

		r.Post("/v1/memory/chat", s.handleMemoryChat)
		r.Get("/v1/memory/history", s.handleMemoryHistory)
		r.Post("/v1/memory/reset", s.handleMemoryReset)
		r.Get("/v1/memory/search", s.handleMemorySearch)
		r.Delete("/v1/memory", s.handleForget)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"memory_backend": s.cfg.MemoryBackend,
		"provider":       s.cfg.InferenceProvider,
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.chat.Ready(ctx); err != nil {
		respondError(w, http.StatusServiceUnavailable, "memory_unavailable", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	v, ok := s.visitors.Get(userID)
	if !ok {
		v = identity.Visitor{UserID: userID}
	}
	respondJSON(w, http.StatusOK, v)
}

func (s *Server) handlePersonas(w http.ResponseWriter, _ *http.Request) {
	defs := s.chat.Personas()
	out := make([]map[string]string, 0, len(defs))
	for _, d := range defs {
		out = append(out, map[string]string{
			"name":      d.Name,
			"specialty": d.Specialty(),
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{"personas": out})
}

func (s *Server) handleModels(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"models":  s.chat.Models(),
		"default": s.chat.DefaultModel(),
	})
}

func (s *Server) handlePerfLatency(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.metrics.StageSnapshot())
}

type chatRequest struct {
	Persona string `json:"persona"`
	Model   string `json:"model"`
	Message string `json:"message"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	reply, err := s.chat.PersonaChat(r.Context(), req.Persona, req.Model, req.Message, nil)
	if err != nil {
		respondChatError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, reply)
}

func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h, err := s.chat.PersonaHistory(q.Get("persona"), q.Get("model"))
	if err != nil {
		respondChatError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h)
}

func (s *Server) handleChatReset(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := s.chat.ResetPersona(req.Persona, req.Model); err != nil {
		respondChatError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": "reset"})
}

func (s *Server) handleMemoryChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	userID := identity.UserIDFromContext(r.Context())
	reply, err := s.chat.MemoryChat(r.Context(), userID, req.Model, req.Message, nil)
	if err != nil {
		respondChatError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, reply)
}

func (s *Server) handleMemoryHistory(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.chat.UserHistory(identity.UserIDFromContext(r.Context())))
}

func (s *Server) handleMemoryReset(w http.ResponseWriter, r *http.Request) {
	s.chat.ResetUser(identity.UserIDFromContext(r.Context()))
	respondJSON(w, http.StatusOK, map[string]any{"status": "reset"})
}

func (s *Server) handleMemorySearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		respondError(w, http.StatusBadRequest, "missing_query", "query parameter q is required")
		return
	}
	found := s.chat.SearchMemories(r.Context(), identity.UserIDFromContext(r.Context()), q)
	facts := found.Facts
	if facts == nil {
		facts = []string{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"memories": facts,
		"degraded": found.Degraded,
	})
}

func (s *Server) handleForget(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if !s.chat.ForgetUser(r.Context(), userID) {
		respondError(w, http.StatusBadGateway, "memory_delete_failed", "memory backend did not confirm the deletion")
		return
	}
	s.visitors.Forget(userID)
	respondJSON(w, http.StatusOK, map[string]any{"status": "forgotten"})
}

// respondChatError maps request validation failures to 400. Provider failures
// never reach here; they come back as failed replies.
func respondChatError(w http.ResponseWriter, err error) {
	code := chatErrorCode(err)
	if code == "internal_error" {
		respondError(w, http.StatusInternalServerError, code, err.Error())
		return
	}
	respondError(w, http.StatusBadRequest, code, err.Error())
}

func chatErrorCode(err error) string {
	switch {
	case errors.Is(err, persona.ErrUnknown):
		return "unknown_persona"
	case errors.Is(err, chat.ErrUnknownModel):
		return "unknown_model"
	case errors.Is(err, conversation.ErrEmptyContent):
		return "empty_message"
	case errors.Is(err, chat.ErrMissingUser):
		return "missing_user"
	default:
		return "internal_error"
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
