package handlers

import (
	"context"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"aviator-casino-backend/internal/game"
	"aviator-casino-backend/internal/live"
	"aviator-casino-backend/internal/models"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Message struct {
	Type string      `json:"type"`
	Game string      `json:"game,omitempty"`
	Data interface{} `json:"data,omitempty"`
}

type Client struct {
	AccountID string
	Conn      *websocket.Conn

	mu sync.Mutex
}

func (c *Client) send(msg *Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Conn.WriteJSON(msg)
}

type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
}

func (h *Hub) run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
		case client := <-h.unregister:
			delete(h.clients, client)
		case msg := <-h.broadcast:
			for client := range h.clients {
				if err := client.send(msg); err != nil {
					client.Conn.Close()
					delete(h.clients, client)
				}
			}
		}
	}
}

// WebSocketHandler pushes round lifecycle events to connected clients and
// mirrors them into redis for the HTTP feeds. It is the scheduler's
// broadcaster.
type WebSocketHandler struct {
	hub  *Hub
	live *live.Service
	log  zerolog.Logger
}

func NewWebSocketHandler(liveService *live.Service, log zerolog.Logger) *WebSocketHandler {
	hub := &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, 256),
	}

	go hub.run()

	return &WebSocketHandler{
		hub:  hub,
		live: liveService,
		log:  log.With().Str("component", "websocket").Logger(),
	}
}

func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &Client{
		AccountID: c.GetString("account_id"),
		Conn:      conn,
	}

	h.hub.register <- client

	defer func() {
		h.hub.unregister <- client
		conn.Close()
	}()

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Debug().Err(err).Msg("websocket read error")
			}
			return
		}

		if msg.Type == "PING" {
			client.send(&Message{Type: "PONG"})
		}
	}
}

func (h *WebSocketHandler) publish(msg *Message) {
	select {
	case h.hub.broadcast <- msg:
	default:
		// Feed is best effort; drop rather than stall the scheduler.
	}
}

func (h *WebSocketHandler) PhaseChanged(gameType models.GameType, phase models.RoundPhase, snapshot *game.RoundSnapshot) {
	h.publish(&Message{
		Type: "phase",
		Game: string(gameType),
		Data: gin.H{"phase": phase, "snapshot": snapshot},
	})

	if err := h.live.SaveSnapshot(context.Background(), gameType, snapshot); err != nil {
		h.log.Warn().Err(err).Str("game", string(gameType)).Msg("failed to save snapshot")
	}
}

func (h *WebSocketHandler) Tick(gameType models.GameType, multiplier float64) {
	h.publish(&Message{
		Type: "tick",
		Game: string(gameType),
		Data: gin.H{"multiplier": multiplier},
	})
}

func (h *WebSocketHandler) RoundFinished(round *models.GameRound) {
	if err := h.live.RecordOutcome(context.Background(), round); err != nil {
		h.log.Warn().Err(err).Str("round_id", round.ID.String()).Msg("failed to record outcome")
	}
}
