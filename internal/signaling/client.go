package signaling

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Fathimaksalam/WebRTC-ChatApp/internal/protocol"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. SDP bodies are the largest
	// payloads that legitimately cross this connection.
	maxMessageSize = 64 * 1024

	sendBuffer = 256
)

// Client wraps one websocket connection. Its connection id is assigned by
// the server and is not stable across reconnects; the client-generated
// userId in join payloads is what survives a reconnect.
type Client struct {
	ID   string
	Hub  *Hub
	Conn *websocket.Conn

	// send is the buffered outbound queue drained by WritePump. Relays queue
	// from their own read-pump goroutines while the hub goroutine handles
	// disconnects, so the closed flag and the close itself share one lock.
	mu     sync.Mutex
	closed bool
	send   chan *protocol.Message
}

func NewClient(id string, hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		ID:   id,
		Hub:  hub,
		Conn: conn,
		send: make(chan *protocol.Message, sendBuffer),
	}
}

// Queue enqueues an outbound message. Delivery to a client that already
// disconnected is a silent drop; a client that cannot drain its queue is
// dropped rather than allowed to stall the rest of the room.
func (c *Client) Queue(msg *protocol.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- msg:
	default:
		slog.Warn("outbound queue full, dropping client", "connection", c.ID)
		c.Conn.Close()
	}
}

// closeSend shuts the outbound queue exactly once, which stops WritePump.
// Queue calls racing the close see the flag and drop instead of panicking
// on the closed channel.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// ReadPump pumps messages from the websocket to the hub dispatcher. It runs
// in a per-connection goroutine and is the connection's only reader.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg protocol.Message
		if err := c.Conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Debug("websocket read error", "connection", c.ID, "err", err)
			}
			break
		}
		c.Hub.Dispatch(c, &msg)
	}
}

// WritePump pumps queued messages to the websocket and keeps the connection
// alive with pings. It is the connection's only writer.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteJSON(msg); err != nil {
				slog.Debug("websocket write error", "connection", c.ID, "err", err)
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
