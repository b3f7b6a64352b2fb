package integration

import (
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"roomrelay/internal/server"
	"roomrelay/test/testhelpers"
)

// TestOriginEnforcement verifies that when the allowed-origins list is
// restricted, upgrade requests from other origins are refused while the
// configured origin still connects.
func TestOriginEnforcement(t *testing.T) {
	_, wsURL := newRelayServer(t, func(cfg *server.Config) {
		cfg.AllowedOrigins = []string{"http://allowed.example"}
	})

	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}

	t.Run("disallowed origin is refused", func(t *testing.T) {
		header := http.Header{}
		header.Set("Origin", "http://blocked.example")

		conn, resp, err := dialer.Dial(wsURL, header)
		if resp != nil {
			defer func() { _ = resp.Body.Close() }()
		}
		if err == nil {
			_ = conn.Close()
			t.Fatal("Expected handshake failure for disallowed origin")
		}
		if resp != nil && resp.StatusCode != http.StatusForbidden {
			t.Errorf("Handshake status = %d, want %d", resp.StatusCode, http.StatusForbidden)
		}
	})

	t.Run("allowed origin connects", func(t *testing.T) {
		header := http.Header{}
		header.Set("Origin", "http://allowed.example")

		conn, resp, err := dialer.Dial(wsURL, header)
		if resp != nil {
			defer func() { _ = resp.Body.Close() }()
		}
		if err != nil {
			t.Fatalf("Handshake with allowed origin failed: %v", err)
		}
		defer func() { _ = conn.Close() }()

		testhelpers.SendJoin(t, conn, "it-origin-room")
		testhelpers.WaitForRoomSize(t, "it-origin-room", 1, 2*time.Second)
	})
}
