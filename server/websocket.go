package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/pattarin-dev/shopflow/agent/orchestrator"
)

// WebSocketHandler runs a chat session over a single connection. Each
// inbound frame is one user turn; the matching reply frame carries the
// assistant's answer, suggestions, and any pending action.
type WebSocketHandler struct {
	svc            *orchestrator.Service
	allowedOrigins []string
}

func NewWebSocketHandler(svc *orchestrator.Service, allowedOrigins []string) *WebSocketHandler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	return &WebSocketHandler{svc: svc, allowedOrigins: allowedOrigins}
}

type wsInbound struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message,omitempty"`
	ImageRef  string `json:"image_ref,omitempty"`
	Confirmed bool   `json:"confirmed,omitempty"`
}

type wsOutbound struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	Payload   any    `json:"payload,omitempty"`
	Error     string `json:"error,omitempty"`
}

func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.allowedOrigins,
	})
	if err != nil {
		log.Error().Err(err).Msg("websocket accept failed")
		return
	}
	defer ws.Close(websocket.StatusNormalClosure, "session ended")

	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	log.Info().Str("session_id", sessionID).Msg("websocket chat connected")

	ctx := r.Context()
	for {
		_, raw, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == -1 && ctx.Err() == nil {
				log.Warn().Err(err).Str("session_id", sessionID).Msg("websocket read error")
			}
			return
		}

		var in wsInbound
		if err := json.Unmarshal(raw, &in); err != nil {
			// Treat unframed text as a plain chat message.
			in = wsInbound{Type: "message", Message: string(raw)}
		}
		if in.SessionID != "" {
			sessionID = in.SessionID
		}

		h.dispatch(ctx, ws, sessionID, in)
	}
}

func (h *WebSocketHandler) dispatch(ctx context.Context, ws *websocket.Conn, sessionID string, in wsInbound) {
	switch in.Type {
	case "", "message":
		res, err := h.svc.HandleMessage(ctx, sessionID, in.Message, in.ImageRef)
		if err != nil {
			h.writeJSON(ctx, ws, wsOutbound{Type: "error", SessionID: sessionID, Error: err.Error()})
			return
		}
		h.writeJSON(ctx, ws, wsOutbound{Type: "reply", SessionID: sessionID, Payload: res})

	case "confirm":
		res, err := h.svc.ConfirmAction(ctx, sessionID, in.Confirmed)
		if err != nil {
			h.writeJSON(ctx, ws, wsOutbound{Type: "error", SessionID: sessionID, Error: err.Error()})
			return
		}
		h.writeJSON(ctx, ws, wsOutbound{Type: "resolution", SessionID: sessionID, Payload: res})

	default:
		h.writeJSON(ctx, ws, wsOutbound{Type: "error", SessionID: sessionID, Error: "unknown message type"})
	}
}

func (h *WebSocketHandler) writeJSON(ctx context.Context, ws *websocket.Conn, out wsOutbound) {
	data, err := json.Marshal(out)
	if err != nil {
		log.Error().Err(err).Msg("marshal websocket frame")
		return
	}
	if err := ws.Write(ctx, websocket.MessageText, data); err != nil {
		log.Debug().Err(err).Str("session_id", out.SessionID).Msg("websocket write failed")
	}
}
