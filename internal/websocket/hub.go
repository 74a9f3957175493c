package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"mdmportal/internal/auth"
	"mdmportal/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMessage = 4096
)

// Frame types exchanged on a request room.
const (
	FrameChat = "chat"
	FramePing = "ping"
)

// Frame is the JSON envelope sent over the socket.
type Frame struct {
	Type    string             `json:"type"`
	Message *model.ChatMessage `json:"message,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Broker fans a payload out to every API instance.
type Broker interface {
	Publish(ctx context.Context, requestID uint, payload []byte) error
}

// Client is one socket joined to one request room.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	requestID uint
	send      chan []byte
}

type delivery struct {
	requestID uint
	payload   []byte
}

// Hub keeps one room of clients per request.
type Hub struct {
	rooms      map[uint]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	deliver    chan delivery
	done       chan struct{}
	broker     Broker
	log        logrus.FieldLogger
}

// NewHub builds a hub. With a nil broker, published messages are delivered
// only to clients of this process.
func NewHub(broker Broker, log logrus.FieldLogger) *Hub {
	return &Hub{
		rooms:      make(map[uint]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliver:    make(chan delivery, 64),
		done:       make(chan struct{}),
		broker:     broker,
		log:        log,
	}
}

// Run dispatches hub events until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, room := range h.rooms {
				for client := range room {
					close(client.send)
				}
			}
			h.rooms = map[uint]map[*Client]bool{}
			return
		case client := <-h.register:
			room, ok := h.rooms[client.requestID]
			if !ok {
				room = make(map[*Client]bool)
				h.rooms[client.requestID] = room
			}
			room[client] = true
			h.log.WithField("request_id", client.requestID).Debug("websocket client joined")
		case client := <-h.unregister:
			h.remove(client)
		case d := <-h.deliver:
			for client := range h.rooms[d.requestID] {
				select {
				case client.send <- d.payload:
				default:
					h.remove(client)
				}
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	room, ok := h.rooms[client.requestID]
	if !ok || !room[client] {
		return
	}
	delete(room, client)
	close(client.send)
	if len(room) == 0 {
		delete(h.rooms, client.requestID)
	}
	h.log.WithField("request_id", client.requestID).Debug("websocket client left")
}

// Deliver queues payload for every local client in the request's room.
func (h *Hub) Deliver(requestID uint, payload []byte) {
	select {
	case h.deliver <- delivery{requestID: requestID, payload: payload}:
	case <-h.done:
	}
}

// PublishMessage sends a stored chat message to its room, through the
// broker when one is configured.
func (h *Hub) PublishMessage(ctx context.Context, msg model.ChatMessage) error {
	payload, err := json.Marshal(Frame{Type: FrameChat, Message: &msg})
	if err != nil {
		return err
	}
	if h.broker != nil {
		return h.broker.Publish(ctx, msg.RequestID, payload)
	}
	h.Deliver(msg.RequestID, payload)
	return nil
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains inbound frames. Clients only send keep-alive pings; any
// inbound frame extends the read deadline and is otherwise dropped.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessage)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.WithError(err).Warn("websocket read failed")
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	}
}

// RequestLookup confirms a request exists before a client may join its room.
type RequestLookup interface {
	Get(ctx context.Context, id uint) (*model.Request, error)
}

// ServeRequestRoom upgrades GET /ws/requests/:id/?token=... and joins the room.
func ServeRequestRoom(hub *Hub, tokens *auth.TokenManager, requests RequestLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.Query("token")
		if tokenString == "" {
			hub.log.Warn("websocket connection rejected: missing token")
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		claims, err := tokens.Parse(tokenString)
		if err != nil || claims.Role == "" {
			hub.log.WithError(err).Warn("websocket connection rejected: invalid token")
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		id, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			c.AbortWithStatus(http.StatusBadRequest)
			return
		}
		if _, err := requests.Get(c.Request.Context(), uint(id)); err != nil {
			c.AbortWithStatus(http.StatusNotFound)
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			hub.log.WithError(err).Warn("websocket upgrade failed")
			return
		}
		client := &Client{hub: hub, conn: conn, requestID: uint(id), send: make(chan []byte, 256)}
		select {
		case hub.register <- client:
		case <-hub.done:
			_ = conn.Close()
			return
		}

		go client.writePump()
		go client.readPump()
	}
}
