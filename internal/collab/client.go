package collab

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/coder/websocket"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	maxMsgSize = 64 * 1024
	sendBuffer = 256
)

// Client is one socket attached to a session. The session owns the send
// queue and closes it when the client leaves.
type Client struct {
	conn        *websocket.Conn
	send        chan []byte
	log         *slog.Logger
	ClientID    string
	DisplayName string
}

func NewClient(conn *websocket.Conn, clientID, displayName string) *Client {
	return &Client{
		conn:        conn,
		send:        make(chan []byte, sendBuffer),
		log:         slog.Default().With("client", clientID),
		ClientID:    clientID,
		DisplayName: displayName,
	}
}

// ReadPump feeds inbound frames to s until the socket or the session closes,
// then detaches the client. Frames that are not a message envelope are
// skipped.
func (c *Client) ReadPump(ctx context.Context, s *Session) {
	defer func() {
		s.Leave(c)
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()
	c.conn.SetReadLimit(maxMsgSize)

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			default:
				c.log.Debug("read error", "error", err)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil || msg.Type == "" {
			c.log.Warn("invalid frame", "error", err)
			continue
		}
		msg.ClientID = c.ClientID
		msg.SessionID = s.ID()

		if err := s.Submit(ctx, c, &msg); err != nil {
			if !errors.Is(err, ErrSessionClosed) && !errors.Is(err, context.Canceled) {
				c.log.Debug("submit failed", "error", err)
			}
			return
		}
	}
}

// WritePump drains the send queue onto the socket and pings on a timer. It
// returns once the queue is closed or a write fails.
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.withDeadline(ctx, func(ctx context.Context) error {
				return c.conn.Write(ctx, websocket.MessageText, data)
			}); err != nil {
				c.log.Debug("write error", "error", err)
				return
			}
		case <-ticker.C:
			if err := c.withDeadline(ctx, c.conn.Ping); err != nil {
				c.log.Debug("ping failed", "error", err)
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) withDeadline(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()
	return fn(ctx)
}

// Send queues msg without blocking. A full queue drops the message. Only
// the session goroutine may call it.
func (c *Client) Send(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.log.Error("marshal message", "type", msg.Type, "error", err)
		return
	}

	select {
	case c.send <- data:
	default:
		c.log.Warn("send queue full, dropping message", "type", msg.Type)
	}
}
