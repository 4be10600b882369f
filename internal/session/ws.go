package session

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/ysxye29-beep/tracnghiem/internal/auth"
	httperrors "github.com/ysxye29-beep/tracnghiem/pkg/http/errors"
	"github.com/ysxye29-beep/tracnghiem/pkg/http/ws"
)

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// TODO: implement proper origin checking for production
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// WSHandler upgrades clients onto the countdown event stream.
type WSHandler struct {
	hub    *ws.Hub
	tokens *auth.Manager
	logger zerolog.Logger
}

func NewWSHandler(hub *ws.Hub, tokens *auth.Manager, logger zerolog.Logger) *WSHandler {
	return &WSHandler{
		hub:    hub,
		tokens: tokens,
		logger: logger.With().Str("component", "session_ws").Logger(),
	}
}

// HandleWebSocket handles GET /ws/session. The token travels in the "token"
// query parameter because browsers cannot set headers on WebSocket upgrades.
func (h *WSHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "Missing token")
		return
	}
	subject, err := h.tokens.ValidateToken(token)
	if err != nil {
		h.logger.Warn().Err(err).Msg("WebSocket token validation failed")
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "Invalid token")
		return
	}

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	wsConn := ws.NewConnection(conn, h.logger)
	h.hub.RegisterConnection(subject, wsConn)

	go wsConn.WritePump()
	go func() {
		defer h.hub.UnregisterConnection(subject, wsConn)
		wsConn.ReadPump(func(msg ws.Message) error {
			if msg.Type == ws.TypePing {
				return wsConn.Send(ws.Message{Type: ws.TypePong})
			}
			return nil
		})
	}()
}
