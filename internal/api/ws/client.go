package ws

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/WalletShell/backend/internal/shared/id"
)

const (
	maxMessageBytes = 64 << 10
	sendBuffer      = 64
	pongWait        = 45 * time.Second
	pingInterval    = 15 * time.Second
	writeWait       = 10 * time.Second
)

type client struct {
	hub  *Hub
	conn *websocket.Conn
	id   string

	out       chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newClient(h *Hub, conn *websocket.Conn) *client {
	return &client{
		hub:  h,
		conn: conn,
		id:   id.Default().GenerateWithPrefix("cli"),
		out:  make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
}

func (c *client) run(ctx context.Context) {
	defer func() {
		c.hub.unregister(c)
		c.close()
	}()
	go c.writeLoop(ctx)
	c.readLoop()
}

// send queues data; a full buffer disconnects the client
func (c *client) send(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.out <- data:
		return true
	default:
		c.hub.logger.Warn("Client too slow, disconnecting", zap.String("client_id", c.id))
		c.close()
		return false
	}
}

func (c *client) enqueue(env Envelope) {
	data, err := encode(env)
	if err != nil {
		c.hub.logger.Error("Failed to encode envelope", zap.String("type", env.Type), zap.Error(err))
		return
	}
	if c.send(data) {
		c.hub.metrics.RecordWSMessage("out", env.Type)
	}
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

func (c *client) readLoop() {
	c.conn.SetReadLimit(maxMessageBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("WebSocket read error", zap.String("client_id", c.id), zap.Error(err))
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		msg, err := decode(data)
		if err != nil {
			c.enqueue(Envelope{Type: TypeError, Payload: ResultPayload{Error: "invalid message"}})
			continue
		}
		c.hub.metrics.RecordWSMessage("in", msg.Type)
		c.handle(msg)
	}
}

func (c *client) handle(msg Inbound) {
	switch msg.Type {
	case TypePing:
		c.enqueue(Envelope{Type: TypePong, ID: msg.ID})
	case TypeAck:
		c.hub.ack(msg.ID, msg.Error)
	default:
		result := ResultPayload{OK: true}
		if err := c.hub.apply(msg); err != nil {
			result = ResultPayload{Error: err.Error()}
			c.hub.logger.Debug("Action failed",
				zap.String("type", msg.Type),
				zap.String("session_id", msg.SessionID),
				zap.Error(err))
		}
		c.enqueue(Envelope{Type: TypeResult, ID: msg.ID, Payload: result})
	}
}

func (c *client) writeLoop(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.close()
			return
		case <-c.done:
			return
		case data := <-c.out:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		}
	}
}
