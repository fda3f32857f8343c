package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/lost-time-companion/internal/config"
	"github.com/kirillkom/lost-time-companion/internal/core/domain"
	"github.com/kirillkom/lost-time-companion/internal/core/ports"
	"github.com/kirillkom/lost-time-companion/internal/observability/metrics"
)

const (
	serviceName     = "api"
	maxRequestBytes = 1 << 20
)

type Router struct {
	cfg     config.Config
	chat    ports.PersonaChat
	history ports.HistoryReader
	metrics *metrics.HTTPServerMetrics
}

// NewRouter wires the persona endpoints. serverMetrics may be nil.
func NewRouter(
	cfg config.Config,
	chat ports.PersonaChat,
	history ports.HistoryReader,
	serverMetrics *metrics.HTTPServerMetrics,
) *Router {
	return &Router{
		cfg:     cfg,
		chat:    chat,
		history: history,
		metrics: serverMetrics,
	}
}

func (rt *Router) Handler() (http.Handler, error) {
	validator, err := newRequestValidator()
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	mux.HandleFunc("POST /api/refine-prose", rt.modeChat(domain.ModeRefineProse))
	mux.HandleFunc("POST /api/explore-lost-time", rt.modeChat(domain.ModeExploreLostTime))
	mux.HandleFunc("POST /api/qa", rt.modeChat(domain.ModeQA))
	mux.HandleFunc("POST /api/chat", rt.chatWithMode)
	mux.HandleFunc("GET /api/sessions/{id}/history", rt.sessionHistory)
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = validator.middleware(handler)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	handler = corsMiddleware(handler, rt.cfg.CORSAllowedOrigins)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler, nil
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type chatRequest struct {
	Message string `json:"message"`
	Mode    string `json:"mode"`
}

func (rt *Router) modeChat(mode domain.PersonaMode) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeChatRequest(w, r)
		if !ok {
			return
		}
		rt.serveChat(w, r, mode, req.Message, false)
	}
}

func (rt *Router) chatWithMode(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeChatRequest(w, r)
	if !ok {
		return
	}
	rt.serveChat(w, r, domain.ParseMode(req.Mode), req.Message, true)
}

func (rt *Router) serveChat(w http.ResponseWriter, r *http.Request, mode domain.PersonaMode, message string, withMode bool) {
	start := time.Now()
	sessionID := resolveSession(w, r)

	reply, err := rt.chat.Chat(r.Context(), sessionID, mode, message)
	if err != nil {
		slog.ErrorContext(r.Context(), "chat_failed",
			"request_id", requestIDFromContext(r.Context()),
			"session_id", sessionID,
			"mode", string(mode),
			"error", err,
		)
		writeError(w, err)
		return
	}

	if !reply.Rejected {
		rt.observeTurn(reply, time.Since(start))
	}

	body := map[string]any{}
	if withMode {
		body["mode"] = reply.Mode
	}
	switch {
	case reply.Rejected:
		body["reply"] = reply.Reply
	case reply.Mode == domain.ModeExploreLostTime:
		passages := reply.Passages
		if passages == nil {
			passages = []domain.PassageRecord{}
		}
		body["passages"] = passages
	default:
		body["reply"] = reply.Reply
	}
	writeJSON(w, http.StatusOK, body)
}

func (rt *Router) observeTurn(reply *domain.ChatReply, duration time.Duration) {
	if rt.metrics == nil {
		return
	}
	mode := string(reply.Mode)
	rt.metrics.RecordChatTurn(serviceName, mode, duration)
	if reply.Trace != nil {
		rt.metrics.RecordRetrieval(serviceName, mode, len(reply.Trace.Keywords), reply.Trace.Candidates, reply.Trace.Returned)
	}
}

func (rt *Router) sessionHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.PathValue("id"))
	if sessionID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "session id is required"})
		return
	}

	messages, err := rt.history.History(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	if len(messages) == 0 {
		writeError(w, domain.WrapError(domain.ErrSessionNotFound, "session history", fmt.Errorf("id=%s", sessionID)))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"messages":   messages,
	})
}

// decodeChatRequest treats an empty body as an empty message.
func decodeChatRequest(w http.ResponseWriter, r *http.Request) (chatRequest, bool) {
	var req chatRequest
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req)
	if err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return chatRequest{}, false
	}
	return req, true
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
