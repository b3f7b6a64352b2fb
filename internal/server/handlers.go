// Package server exposes HTTP handlers, including WebSocket upgrades, the
// active-rooms census, and health checks.
package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     checkOrigin,
}

// WebSocketHandler handles WebSocket upgrade requests. It upgrades the HTTP
// connection, creates a new Client instance, and registers it with the hub,
// which launches the client's read/write pumps.
func WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := NewClient(conn, hub, r.RemoteAddr)
	client.hub.register <- client
}

// ActiveRoomsHandler serves the room census as a JSON array of
// {"room","clients"} objects. An empty census encodes as [].
func ActiveRoomsHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(hub.Census()); err != nil {
		log.Printf("Error writing census response: %v", err)
	}
}

// HealthHandler provides a simple liveness endpoint that returns server status.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "roomrelay server is running!")
}

// OptionsHandler answers OPTIONS requests that are not CORS preflights
// (no Access-Control-Request-Method header) with the same permissive
// allow headers and an empty body.
func OptionsHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.WriteHeader(http.StatusNoContent)
}

// NotFoundHandler answers unmatched routes with a plain 404 body.
func NotFoundHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNotFound)
	_, _ = fmt.Fprint(w, "Not Found")
}
