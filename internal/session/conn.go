package session

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hangoutx/hangoutx-server/internal/types"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendQueueSize  = 256
)

// Conn binds one websocket to exactly one (session, participant) pair
// for its lifetime.
type Conn struct {
	ws       *websocket.Conn
	session  *Session
	log      *log.Logger
	user     types.User
	send     chan *ServerEvent
	stop     chan struct{}
	stopOnce sync.Once
}

func newConn(ws *websocket.Conn, s *Session, user types.User, logger *log.Logger) *Conn {
	return &Conn{
		ws:      ws,
		session: s,
		log:     logger,
		user:    user,
		send:    make(chan *ServerEvent, sendQueueSize),
		stop:    make(chan struct{}),
	}
}

func (c *Conn) Write() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case ev, ok := <-c.send:
			if !ok {
				return
			}

			bytes, err := json.Marshal(ev)
			if err != nil {
				c.log.Println("failed to serialize event:", err)
				continue
			}

			if !c.sendMessage(websocket.TextMessage, bytes) {
				return
			}
		case <-c.stop:
			return
		case <-ticker.C:
			if !c.sendMessage(websocket.PingMessage, nil) {
				return
			}
		}
	}
}

func (c *Conn) Read() {
	defer func() {
		c.ws.Close()
		c.session.Detach(c)
		c.close()
	}()

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error { c.ws.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.log.Printf("ws: read: %v", err)
			}
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.log.Println("error parsing message:", err)
			c.queueEvent(ErrInvalidMessage(-1))
			continue
		}

		msg.conn = c
		msg.UserId = c.user.Id
		msg.Timestamp = Now()

		if !c.session.Submit(&msg) {
			c.queueEvent(ErrServiceUnavailable(msg.Id))
		}
	}
}

// queueEvent enqueues an event for delivery, dropping it if the
// connection's buffer is full. A false return marks the consumer as too
// slow to keep.
func (c *Conn) queueEvent(ev *ServerEvent) bool {
	select {
	case c.send <- ev:
	default:
		c.log.Printf("send queue full for %q, dropping event", c.user.Username)
		return false
	}

	return true
}

func (c *Conn) sendMessage(msgType int, msg []byte) bool {
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))

	if err := c.ws.WriteMessage(msgType, msg); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
			websocket.CloseNormalClosure) {
			c.log.Printf("write message: %s", err)
		}
		return false
	}

	return true
}

func (c *Conn) close() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
}
