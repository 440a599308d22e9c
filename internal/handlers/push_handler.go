package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"wordwarrior/internal/notify"
	"wordwarrior/internal/service"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// PushHandler streams room change notifications over websockets
type PushHandler struct {
	broker   notify.Broker
	battles  *service.BattleService
	upgrader websocket.Upgrader
}

// NewPushHandler creates a new push handler
func NewPushHandler(broker notify.Broker, battles *service.BattleService) *PushHandler {
	return &PushHandler{
		broker:  broker,
		battles: battles,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Sockets authenticate with a token, not cookies
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Subscribe upgrades the request and forwards matching events.
// With ?room=<id> the caller receives updates to that room; without it,
// rooms created for them while they wait in a queue.
func (h *PushHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	player := GetPlayerFromContext(r.Context())
	if player == nil {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized", "", nil)
		return
	}

	filter := notify.ForPlayer1(player.ID)
	if roomID := r.URL.Query().Get("room"); roomID != "" {
		if _, err := h.battles.GetRoomView(r.Context(), roomID, player.ID); err != nil {
			respondWithServiceError(w, "Error loading room for subscription", err)
			return
		}
		filter = notify.ForRoom(roomID)
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied
		log.Printf("Error upgrading websocket for player %s: %v", player.ID, err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sub, err := h.broker.Subscribe(ctx, filter)
	if err != nil {
		log.Printf("Error subscribing player %s: %v", player.ID, err)
		closeSocket(conn, websocket.CloseTryAgainLater, "notifications unavailable")
		return
	}
	defer sub.Close()

	go readPump(conn, cancel)
	writePump(ctx, conn, sub.C)
}

// readPump consumes control frames until the peer goes away
func readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writePump(ctx context.Context, conn *websocket.Conn, events <-chan notify.Event) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			closeSocket(conn, websocket.CloseNormalClosure, "")
			return
		case e, ok := <-events:
			if !ok {
				closeSocket(conn, websocket.CloseGoingAway, "subscription ended")
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(e); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func closeSocket(conn *websocket.Conn, code int, text string) {
	msg := websocket.FormatCloseMessage(code, text)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}
