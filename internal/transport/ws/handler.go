package ws

import (
	"context"
	"net/http"
	"strings"
	"time"

	"wordrush/internal/model"
	"wordrush/internal/service"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 * 1024
)

// Handler upgrades HTTP requests and pumps frames between sockets and the coordinator
type Handler struct {
	hub      *Hub
	coord    *service.Coordinator
	upgrader websocket.Upgrader
	limit    rate.Limit
	burst    int
}

// NewHandler creates a new WebSocket handler. An allowed origin of "*"
// accepts any origin; requests without an Origin header are always accepted.
func NewHandler(hub *Hub, coord *service.Coordinator, allowedOrigins []string, msgRate float64, burst int) *Handler {
	h := &Handler{
		hub:   hub,
		coord: coord,
		limit: rate.Limit(msgRate),
		burst: burst,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		return false
	}
}

// ServeWS handles GET /ws
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("origin", r.Header.Get("Origin")).Msg("websocket upgrade failed")
		return
	}

	client := newClient()
	h.hub.Register(client)
	h.coord.Connect(client)
	log.Info().Str("conn", client.id).Str("remote", r.RemoteAddr).Msg("websocket connected")

	go h.writePump(wsConn, client)
	go h.readPump(wsConn, client)
}

func (h *Handler) readPump(wsConn *websocket.Conn, client *Client) {
	defer func() {
		h.coord.Disconnect(client)
		h.hub.Unregister(client)
		client.Close("read closed")
		wsConn.Close()
		log.Info().Str("conn", client.id).Msg("websocket disconnected")
	}()

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	limiter := rate.NewLimiter(h.limit, h.burst)
	for {
		msgType, data, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("conn", client.id).Msg("websocket read error")
			}
			return
		}
		if msgType != websocket.TextMessage {
			_ = client.Send(model.ErrorMessage(model.ErrInvalidMessage))
			continue
		}
		if !limiter.Allow() {
			_ = client.Send(model.ErrorMessage(model.ErrRateLimited))
			continue
		}
		h.coord.Handle(context.Background(), client, data)
	}
}

func (h *Handler) writePump(wsConn *websocket.Conn, client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case message := <-client.send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-client.closing:
			if !flush(wsConn, client) {
				return
			}
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			wsConn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, client.closeReason))
			return

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// flush writes whatever is still queued, reporting false on a write error
func flush(wsConn *websocket.Conn, client *Client) bool {
	for {
		select {
		case message := <-client.send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.TextMessage, message); err != nil {
				return false
			}
		default:
			return true
		}
	}
}
