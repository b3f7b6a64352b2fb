// Package server defines the wire types exchanged with clients and utility
// helpers that are reused across client and hub logic.
package server

import "strings"

// Envelope type tags recognized on inbound frames.
const (
	EnvelopeJoin = "join"
	EnvelopeChat = "message"
)

// Envelope is the tagged JSON frame clients send over the WebSocket.
// A "join" carries Room; a "message" carries Sender and Text.
type Envelope struct {
	Type   string `json:"type"`
	Room   string `json:"room,omitempty"`
	Sender string `json:"sender,omitempty"`
	Text   string `json:"text,omitempty"`
}

// BroadcastMessage is the outbound payload fanned out to room members.
// The timestamp is assigned by the hub at broadcast time.
type BroadcastMessage struct {
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// RoomStatus is one entry in the active-rooms census.
type RoomStatus struct {
	Room    string `json:"room"`
	Clients int    `json:"clients"`
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
