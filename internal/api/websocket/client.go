package websocket

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fortuna/sabermetrics/internal/service"
	"github.com/fortuna/sabermetrics/pkg/logger"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096

	// maxInFlight bounds concurrent computations per connection.
	maxInFlight = 4
)

// Client is one WebSocket connection.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	computer Computer
	log      logger.Logger
	send     chan []byte
	slots    chan struct{}
	ctx      context.Context
	cancel   context.CancelFunc
}

func newClient(hub *Hub, conn *websocket.Conn, computer Computer, log logger.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		hub:      hub,
		conn:     conn,
		computer: computer,
		log:      log,
		send:     make(chan []byte, 256),
		slots:    make(chan struct{}, maxInFlight),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (c *Client) close() {
	c.cancel()
}

// readPump decodes requests and dispatches each to its own goroutine.
// Replies may arrive out of order; callers match them by id.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.cancel()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn(c.ctx, "websocket read failed", logger.Error(err))
			}
			return
		}

		var req Request
		if err := json.Unmarshal(msg, &req); err != nil {
			c.reply(Reply{Error: "malformed request", Kind: "invalid_input"})
			continue
		}

		select {
		case c.slots <- struct{}{}:
		case <-c.ctx.Done():
			return
		}
		go func(req Request) {
			defer func() { <-c.slots }()
			c.reply(c.handle(req))
		}(req)
	}
}

func (c *Client) handle(req Request) Reply {
	res, err := c.computer.Compute(c.ctx, req.Metric, req.Player, req.Season)
	if err != nil {
		return Reply{ID: req.ID, Error: service.Message(err), Kind: service.Classify(err)}
	}
	return Reply{ID: req.ID, Result: res}
}

func (c *Client) reply(r Reply) {
	data, err := json.Marshal(r)
	if err != nil {
		c.log.Error(c.ctx, "encoding reply", logger.Error(err))
		return
	}
	select {
	case c.send <- data:
	case <-c.ctx.Done():
	}
}

// writePump owns all writes to the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.cancel()
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.cancel()
				return
			}
		case <-c.ctx.Done():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
