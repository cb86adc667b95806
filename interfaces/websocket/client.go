package websocket

import (
	"bytes"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Clients only send keepalives, so inbound frames stay small
	maxMessageSize = 4 * 1024

	sendBufferSize = 256
)

// Client is one websocket connection of a user. It implements Conn.
type Client struct {
	id       string
	userID   string
	registry *Registry
	conn     *websocket.Conn
	send     chan []byte
	done     chan struct{}
	once     sync.Once
	logger   *zap.Logger
}

func newClient(userID string, registry *Registry, conn *websocket.Conn, logger *zap.Logger) *Client {
	id := uuid.New().String()
	return &Client{
		id:       id,
		userID:   userID,
		registry: registry,
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
		done:     make(chan struct{}),
		logger:   logger.With(zap.String("userID", userID), zap.String("connectionID", id)),
	}
}

func (c *Client) ID() string { return c.id }

// Send queues payload without blocking. A full buffer fails this message
// only; the connection stays open.
func (c *Client) Send(payload []byte) error {
	select {
	case <-c.done:
		return ErrConnClosed
	default:
	}

	select {
	case c.send <- payload:
		return nil
	case <-c.done:
		return ErrConnClosed
	default:
		return ErrBufferFull
	}
}

// Close stops both pumps. It is safe to call more than once.
func (c *Client) Close() error {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
	return nil
}

// start registers the client and runs its pumps
func (c *Client) start() bool {
	if !c.registry.Register(c.userID, c) {
		return false
	}
	go c.writePump()
	go c.readPump()
	c.sendConnectionEstablished()
	return true
}

func (c *Client) readPump() {
	defer func() {
		c.registry.Unregister(c.userID, c)
		_ = c.Close()
		c.logger.Debug("Read pump stopped")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Warn("WebSocket read error", zap.Error(err))
			}
			return
		}
		if messageType == websocket.TextMessage {
			c.handleTextMessage(message)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Warn("Failed to write message", zap.Error(err))
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("Failed to send ping", zap.Error(err))
				return
			}
		}
	}
}

// handleTextMessage answers application level pings; anything else is ignored
func (c *Client) handleTextMessage(message []byte) {
	message = bytes.TrimSpace(message)
	if string(message) == `{"type":"ping"}` {
		_ = c.Send([]byte(`{"type":"pong"}`))
		return
	}
	c.logger.Debug("Ignoring client message", zap.Int("bytes", len(message)))
}

type controlMessage struct {
	Type         string `json:"type"`
	ConnectionID string `json:"connectionId"`
	UserID       string `json:"userId"`
	Timestamp    int64  `json:"timestamp"`
}

func (c *Client) sendConnectionEstablished() {
	msg, _ := json.Marshal(controlMessage{
		Type:         "CONNECTION_ESTABLISHED",
		ConnectionID: c.id,
		UserID:       c.userID,
		Timestamp:    time.Now().Unix(),
	})
	if err := c.Send(msg); err != nil {
		c.logger.Warn("Failed to send connection established message", zap.Error(err))
	}
}
