// Package server manages individual WebSocket clients, handling read/write
// pumps, envelope dispatch, and lifecycle control for each connection.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// writeWait is the deadline for a single outbound write.
	writeWait = 10 * time.Second
	// pongWait is how long a connection may stay silent before the read fails.
	pongWait = 60 * time.Second
	// pingInterval must be shorter than pongWait so pongs arrive in time.
	pingInterval = 54 * time.Second
)

// Client represents one WebSocket connection in the relay. It carries the
// connection state, buffered send channel, hub reference, and at most one
// room association. The room field is written only by the hub's Join/Leave
// under the hub's mutex.
type Client struct {
	id             string
	conn           *websocket.Conn
	send           chan []byte
	hub            *Hub
	addr           string
	room           string
	closed         bool
	maxMessageSize int64
}

// NewClient creates a new Client instance with the provided WebSocket
// connection, hub reference, and client address. The client's send channel
// is buffered to absorb bursts without blocking the hub.
func NewClient(conn *websocket.Conn, hub *Hub, addr string) *Client {
	cfg := currentConfig()
	if conn != nil {
		conn.SetReadLimit(cfg.MaxMessageSize)
	}

	return &Client{
		id:             uuid.NewString(),
		conn:           conn,
		send:           make(chan []byte, 256),
		hub:            hub,
		addr:           addr,
		maxMessageSize: cfg.MaxMessageSize,
	}
}

// ID returns the client's unique identifier.
func (c *Client) ID() string {
	return c.id
}

// GetSendChan returns the client's send channel for reading outgoing messages.
// This channel is read-only from the caller's perspective.
func (c *Client) GetSendChan() <-chan []byte {
	return c.send
}

// setupReadConnection configures read deadlines and the pong handler.
func (c *Client) setupReadConnection() {
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Printf("Error setting initial read deadline for %s: %v", c.addr, err)
	}
	c.conn.SetPongHandler(func(string) error {
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			log.Printf("Error setting read deadline in pong handler for %s: %v", c.addr, err)
		}
		return nil
	})
}

// logReadError classifies the error that ended the read loop.
func (c *Client) logReadError(err error) {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		log.Printf("Message from %s exceeded maximum size of %d bytes", c.addr, c.maxMessageSize)
	case websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure):
		log.Printf("Client %s disconnected: %v", c.addr, err)
	case errors.Is(err, io.EOF) || isExpectedCloseError(err):
		log.Printf("Client %s connection closed: %v", c.addr, err)
	default:
		log.Printf("WebSocket read error from %s: %v", c.addr, err)
	}
}

// processEnvelope decodes one inbound frame and drives the hub. Undecodable
// frames, unknown envelope types, and out-of-context chats are logged and
// dropped; they never close the connection or touch room state.
func (c *Client) processEnvelope(rawMessage []byte) {
	var env Envelope
	if err := json.Unmarshal(rawMessage, &env); err != nil {
		log.Printf("Discarding undecodable frame from %s: %v", c.addr, err)
		return
	}

	switch env.Type {
	case EnvelopeJoin:
		if strings.TrimSpace(env.Room) == "" {
			log.Printf("Discarding join with empty room name from %s", c.addr)
			return
		}
		c.hub.Join(c, env.Room)

	case EnvelopeChat:
		room := c.hub.roomOf(c)
		if room == "" {
			log.Printf("Discarding chat from %s: no room joined", c.addr)
			return
		}
		c.hub.Broadcast(room, env.Sender, env.Text)

	default:
		log.Printf("Discarding frame with unknown type %q from %s", env.Type, c.addr)
	}
}

// readPump reads frames off the connection until it closes, then hands the
// client back to the hub for cleanup. Room membership is released there,
// even if the channel closed before any join was received.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		if err := c.conn.Close(); err != nil {
			if !isExpectedCloseError(err) {
				log.Printf("Error closing connection in readPump: %v", err)
			}
		}
	}()

	c.setupReadConnection()

	for {
		_, rawMessage, err := c.conn.ReadMessage()
		if err != nil {
			c.logReadError(err)
			break
		}

		c.processEnvelope(rawMessage)
	}
}

// writePump drains the send channel onto the connection and keeps the peer
// alive with periodic pings. One writer per connection; the hub never writes
// to the socket directly.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.closeConnection()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Printf("Error setting write deadline for %s: %v", c.addr, err)
				return
			}
			if !ok {
				c.writeCloseMessage()
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				if !isExpectedCloseError(err) {
					log.Printf("Error writing message to %s: %v", c.addr, err)
				}
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Printf("Error setting write deadline for ping to %s: %v", c.addr, err)
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				if !isExpectedCloseError(err) {
					log.Printf("Error writing ping message to %s: %v", c.addr, err)
				}
				return
			}
		}
	}
}

// closeConnection safely closes the WebSocket connection.
func (c *Client) closeConnection() {
	if err := c.conn.Close(); err != nil {
		if !isExpectedCloseError(err) {
			log.Printf("Error closing connection in writePump: %v", err)
		}
	}
}

// writeCloseMessage sends a close frame to the peer.
func (c *Client) writeCloseMessage() {
	if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
		if !isExpectedCloseError(err) {
			log.Printf("Error writing close message to %s: %v", c.addr, err)
		}
	}
}
