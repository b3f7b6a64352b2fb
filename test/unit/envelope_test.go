package unit

import (
	"encoding/json"
	"testing"

	"roomrelay/internal/server"
)

// TestEnvelopeDecoding verifies how inbound frames decode into envelopes,
// including the failure modes that must leave room state untouched.
func TestEnvelopeDecoding(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantErr    bool
		wantType   string
		wantRoom   string
		wantText   string
		wantSender string
	}{
		{
			name:     "join envelope",
			raw:      `{"type":"join","room":"lobby"}`,
			wantType: server.EnvelopeJoin,
			wantRoom: "lobby",
		},
		{
			name:       "chat envelope",
			raw:        `{"type":"message","sender":"A","text":"hi"}`,
			wantType:   server.EnvelopeChat,
			wantText:   "hi",
			wantSender: "A",
		},
		{
			name:     "unknown type decodes but is unrecognized",
			raw:      `{"type":"subscribe","room":"lobby"}`,
			wantType: "subscribe",
			wantRoom: "lobby",
		},
		{
			name:    "malformed JSON",
			raw:     `{"type": "join", "room":`,
			wantErr: true,
		},
		{
			name:    "wrong field type",
			raw:     `{"type":"join","room":5}`,
			wantErr: true,
		},
		{
			name:    "non-object payload",
			raw:     `"just a string"`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var env server.Envelope
			err := json.Unmarshal([]byte(tt.raw), &env)

			if tt.wantErr {
				if err == nil {
					t.Fatalf("Unmarshal(%s) expected error, got %+v", tt.raw, env)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unmarshal(%s) unexpected error: %v", tt.raw, err)
			}
			if env.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", env.Type, tt.wantType)
			}
			if env.Room != tt.wantRoom {
				t.Errorf("Room = %q, want %q", env.Room, tt.wantRoom)
			}
			if env.Text != tt.wantText {
				t.Errorf("Text = %q, want %q", env.Text, tt.wantText)
			}
			if env.Sender != tt.wantSender {
				t.Errorf("Sender = %q, want %q", env.Sender, tt.wantSender)
			}
		})
	}
}

// TestBroadcastMessageWireShape verifies the outbound payload's JSON keys.
func TestBroadcastMessageWireShape(t *testing.T) {
	payload, err := json.Marshal(server.BroadcastMessage{
		Sender:    "A",
		Text:      "hi",
		Timestamp: "2026-08-28T12:00:00Z",
	})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded map[string]string
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	for _, key := range []string{"sender", "text", "timestamp"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("Payload missing %q key: %s", key, payload)
		}
	}
}

// TestRoomStatusWireShape verifies the census entry's JSON keys.
func TestRoomStatusWireShape(t *testing.T) {
	payload, err := json.Marshal(server.RoomStatus{Room: "lobby", Clients: 2})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	want := `{"room":"lobby","clients":2}`
	if string(payload) != want {
		t.Errorf("RoomStatus JSON = %s, want %s", payload, want)
	}
}
