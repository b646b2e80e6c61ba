package notification

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait  = 10 * time.Second
	maxMsgSize = 4 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// origin is checked by the CORS layer and the token
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSChannel carries the same JSON events as SSEChannel in WebSocket text frames.
type WSChannel struct {
	id       uuid.UUID
	identity string
	conn     *websocket.Conn
	log      logrus.FieldLogger

	mu     sync.Mutex
	closed bool

	done      chan struct{}
	closeOnce sync.Once
}

// NewWSChannel wraps an upgraded connection and starts draining client frames.
// The channel closes itself when the client goes away.
func NewWSChannel(identity string, conn *websocket.Conn, log logrus.FieldLogger) *WSChannel {
	c := &WSChannel{
		id:       uuid.New(),
		identity: identity,
		conn:     conn,
		log:      log,
		done:     make(chan struct{}),
	}
	go c.readLoop()
	return c
}

func (c *WSChannel) ID() uuid.UUID         { return c.id }
func (c *WSChannel) Identity() string      { return c.identity }
func (c *WSChannel) Done() <-chan struct{} { return c.done }

func (c *WSChannel) Send(ev Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrChannelClosed
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(ev); err != nil {
		return fmt.Errorf("write %s frame: %w", ev.Type, err)
	}
	return nil
}

func (c *WSChannel) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		_ = c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		_ = c.conn.Close()
		c.mu.Unlock()
		close(c.done)
	})
}

// readLoop discards inbound frames; the stream is server-to-client only.
func (c *WSChannel) readLoop() {
	defer c.Close()

	c.conn.SetReadLimit(maxMsgSize)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) &&
				!errors.Is(err, websocket.ErrCloseSent) {
				c.log.WithError(err).WithField("identity", c.identity).Debug("websocket read failed")
			}
			return
		}
	}
}
