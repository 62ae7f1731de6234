package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"golang.org/x/net/websocket"

	"github.com/wolfman30/kims-booking/pkg/logging"
)

const (
	historyLimit     = 100
	eventQueueSize   = 16
	transportSocket  = "websocket"
	transportRequest = "http"
)

// Metrics tracks open chats per transport.
type Metrics interface {
	ChatSessionOpened(transport string)
	ChatSessionClosed(transport string)
}

// Handler serves the assistant over a websocket, with plain HTTP fallbacks
// for history and one-shot events.
type Handler struct {
	bot     *Bot
	metrics Metrics
	logger  *logging.Logger
}

func NewHandler(bot *Bot, metrics Metrics, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{bot: bot, metrics: metrics, logger: logger}
}

// Routes mounts the chat endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/ws", h.HandleWebSocket)
	r.Get("/history", h.HandleHistory)
	r.Post("/events", h.HandleEvent)
}

// HandleWebSocket upgrades the request and runs the chat until the client
// disconnects. ?session= resumes an existing booking session.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(conn, r)
	}).ServeHTTP(w, r)
}

func (h *Handler) serveWS(conn *websocket.Conn, r *http.Request) {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	var sendMu sync.Mutex
	send := func(out Outbound) {
		sendMu.Lock()
		defer sendMu.Unlock()
		if err := websocket.JSON.Send(conn, out); err != nil {
			h.logger.Debug("chat: send failed", "error", err)
		}
	}

	session, resumed, err := h.bot.Open(ctx, r.URL.Query().Get("session"))
	if err != nil {
		h.logger.Error("chat: failed to open session", "error", err)
		send(Outbound{Type: TypeError, Text: "Sorry, something went wrong. Please try again."})
		return
	}
	send(Outbound{Type: TypeSession, SessionID: session.ID()})

	if h.metrics != nil {
		h.metrics.ChatSessionOpened(transportSocket)
		defer h.metrics.ChatSessionClosed(transportSocket)
	}
	h.logger.Info("chat: connection opened", "session_id", session.ID(), "resumed", resumed)

	events := make(chan Event, eventQueueSize)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if resumed {
			h.sendHistory(ctx, session.ID(), send)
		} else if err := session.Greet(ctx, send); err != nil {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-events:
				if err := session.Handle(ctx, ev, send); err != nil {
					if ctx.Err() != nil {
						return
					}
					h.logger.Warn("chat: event failed", "session_id", session.ID(), "type", ev.Type, "error", err)
				}
			}
		}
	}()

read:
	for {
		var ev Event
		if err := websocket.JSON.Receive(conn, &ev); err != nil {
			h.logger.Debug("chat: connection closed", "session_id", session.ID(), "error", err)
			break
		}
		if ev.Type == EventPing {
			send(Outbound{Type: TypePong})
			continue
		}
		select {
		case events <- ev:
		case <-done:
			break read
		}
	}

	// Pending script timers stop with the connection.
	cancel()
	<-done
}

func (h *Handler) sendHistory(ctx context.Context, sessionID string, send Emitter) {
	msgs, err := h.bot.History(ctx, sessionID, historyLimit)
	if err != nil {
		h.logger.Warn("chat: failed to load history", "session_id", sessionID, "error", err)
		return
	}
	if len(msgs) > 0 {
		send(Outbound{Type: TypeHistory, SessionID: sessionID, Messages: msgs})
	}
}

// HandleHistory handles GET /chat/history?session=.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session"))
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}
	msgs, err := h.bot.History(r.Context(), sessionID, historyLimit)
	if err != nil {
		h.logger.Error("chat: failed to load history", "error", err)
		http.Error(w, "failed to load history", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session_id": sessionID, "messages": msgs})
}

// EventRequest is the body of POST /chat/events.
type EventRequest struct {
	SessionID string `json:"session_id"`
	Event     Event  `json:"event"`
}

// EventResponse carries every message the event produced.
type EventResponse struct {
	SessionID string     `json:"session_id"`
	Messages  []Outbound `json:"messages"`
}

// HandleEvent handles POST /chat/events for clients without websockets.
// Scripts play without delays and typing indicators are omitted.
func (h *Handler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	var req EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	bot := h.bot.WithScheduler(Immediate())
	session, resumed, err := bot.Open(r.Context(), req.SessionID)
	if err != nil {
		h.logger.Error("chat: failed to open session", "error", err)
		http.Error(w, "failed to open session", http.StatusInternalServerError)
		return
	}

	resp := EventResponse{SessionID: session.ID(), Messages: []Outbound{}}
	collect := func(out Outbound) {
		if out.Type != TypeTyping {
			resp.Messages = append(resp.Messages, out)
		}
	}
	if !resumed {
		if err := session.Greet(r.Context(), collect); err != nil {
			http.Error(w, "request cancelled", http.StatusServiceUnavailable)
			return
		}
	}
	if req.Event.Type != "" {
		if err := session.Handle(r.Context(), req.Event, collect); err != nil && !errors.Is(err, context.Canceled) {
			h.logger.Warn("chat: event failed", "session_id", session.ID(), "type", req.Event.Type, "error", err)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
