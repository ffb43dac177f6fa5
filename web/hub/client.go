package hub

import (
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// Connection timing. Pings go out well inside the pong deadline.
const (
	writeTimeout   = 10 * time.Second
	pongTimeout    = 60 * time.Second
	pingEvery      = pongTimeout * 9 / 10
	inboundLimit   = 4 * 1024
	clientQueueLen = 64
)

// Client is one dashboard connection. Only its writer goroutine touches the
// socket for writes.
type Client struct {
	ID    string
	hub   *Hub
	conn  *websocket.Conn
	queue chan Message
}

// Attach registers conn with h and serves it until the connection closes or
// the hub stops. It blocks, as the fiber websocket handler requires.
func Attach(h *Hub, conn *websocket.Conn) {
	c := &Client{ID: uuid.NewString(), hub: h, conn: conn, queue: make(chan Message, clientQueueLen)}
	select {
	case h.register <- c:
	case <-h.done:
		return
	}
	go c.write()
	c.read()
}

// read discards inbound frames; it exists to observe pongs and closes.
func (c *Client) read() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(inboundLimit)
	extend := func(string) error { return c.conn.SetReadDeadline(time.Now().Add(pongTimeout)) }
	_ = extend("")
	c.conn.SetPongHandler(extend)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// write drains the queue and keeps the connection alive with pings. A closed
// queue means the hub dropped the client.
func (c *Client) write() {
	ping := time.NewTicker(pingEvery)
	defer func() {
		ping.Stop()
		c.conn.Close()
	}()
	for {
		var (
			kind int
			data []byte
		)
		select {
		case msg, ok := <-c.queue:
			if !ok {
				_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				_ = c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			kind, data = websocket.TextMessage, msg
		case <-ping.C:
			kind = websocket.PingMessage
		}
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(kind, data); err != nil {
			return
		}
	}
}
