// Package testhelpers provides common utilities and helper functions for
// testing the roomrelay server.
//
// This package contains reusable test utilities that are shared across unit
// and integration tests. It provides functions for creating test servers,
// driving the envelope protocol over WebSocket connections, and asserting
// response properties to reduce code duplication in test files.
package testhelpers

import (
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"roomrelay/internal/server"
)

// CreateTestServer creates a test HTTP server with the given handler.
// It returns a running httptest.Server that should be closed after use.
func CreateTestServer(handler http.Handler) *httptest.Server {
	return httptest.NewServer(handler)
}

// WebSocketURL converts a test server's base URL into its ws:// endpoint.
func WebSocketURL(t *testing.T, baseURL string) string {
	t.Helper()

	u, err := url.Parse(baseURL)
	if err != nil {
		t.Fatalf("Failed to parse test server URL: %v", err)
	}
	u.Scheme = "ws"
	u.Path = "/ws"
	return u.String()
}

// ConnectWebSocket creates a WebSocket connection to the specified URL.
// It fails the test if the connection cannot be established.
func ConnectWebSocket(t *testing.T, wsURL string) *websocket.Conn {
	t.Helper()

	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, resp, err := dialer.Dial(wsURL, nil)
	if resp != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket at %s: %v", wsURL, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// SendJoin sends a join envelope for the given room.
func SendJoin(t *testing.T, conn *websocket.Conn, room string) {
	t.Helper()

	env := server.Envelope{Type: server.EnvelopeJoin, Room: room}
	if err := conn.WriteJSON(env); err != nil {
		t.Fatalf("Failed to send join envelope: %v", err)
	}
}

// SendChat sends a chat envelope with the given sender and text.
func SendChat(t *testing.T, conn *websocket.Conn, sender, text string) {
	t.Helper()

	env := server.Envelope{Type: server.EnvelopeChat, Sender: sender, Text: text}
	if err := conn.WriteJSON(env); err != nil {
		t.Fatalf("Failed to send chat envelope: %v", err)
	}
}

// SendRaw sends a raw text frame, useful for exercising malformed input.
func SendRaw(t *testing.T, conn *websocket.Conn, data []byte) {
	t.Helper()

	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatalf("Failed to send raw frame: %v", err)
	}
}

// ReceiveBroadcast reads one broadcast payload from the connection within
// the timeout and fails the test otherwise.
func ReceiveBroadcast(t *testing.T, conn *websocket.Conn, timeout time.Duration) server.BroadcastMessage {
	t.Helper()

	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		t.Fatalf("Failed to set read deadline: %v", err)
	}

	var msg server.BroadcastMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("Failed to read broadcast: %v", err)
	}
	return msg
}

// ExpectNoMessage asserts that nothing arrives on the connection within the
// timeout. A read timeout is success; a delivered frame is a failure.
func ExpectNoMessage(t *testing.T, conn *websocket.Conn, timeout time.Duration) {
	t.Helper()

	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		t.Fatalf("Failed to set read deadline: %v", err)
	}
	_, _, err := conn.ReadMessage()
	if err == nil {
		t.Fatalf("Expected no message, but received one")
	}
	if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
		return
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return
	}
	t.Fatalf("Unexpected error while waiting for absence of message: %v", err)
}

// CloseWebSocket gracefully closes a WebSocket connection.
func CloseWebSocket(conn *websocket.Conn) error {
	err := conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	if err != nil {
		return err
	}
	return conn.Close()
}

// MakeRequest creates and executes an HTTP request, returning the response.
// It includes a 5-second timeout and fails the test if the request cannot be
// created or executed successfully.
func MakeRequest(t *testing.T, method, url string) *http.Response {
	t.Helper()

	client := &http.Client{Timeout: 5 * time.Second}

	req, err := http.NewRequest(method, url, http.NoBody)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}

	return resp
}

// AssertStatusCode checks if the HTTP response has the expected status code.
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("Expected status code %d, got %d", expected, resp.StatusCode)
	}
}

// AssertContentType checks if the HTTP response has the expected Content-Type header.
func AssertContentType(t *testing.T, resp *http.Response, expected string) {
	t.Helper()
	contentType := resp.Header.Get("Content-Type")
	if contentType != expected {
		t.Errorf("Expected content type %s, got %s", expected, contentType)
	}
}

// WaitForRoomSize polls the hub's census until the named room reaches the
// wanted member count or the deadline passes. A want of zero waits for the
// room to disappear from the census.
func WaitForRoomSize(t *testing.T, room string, want int, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for {
		got := 0
		for _, status := range server.GetHub().Census() {
			if status.Room == room {
				got = status.Clients
			}
		}
		if got == want {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("Room %q has %d members, want %d", room, got, want)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
