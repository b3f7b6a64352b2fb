// Package server coordinates room membership, message broadcast, and
// connection cleanup for the roomrelay WebSocket system via the Hub type.
package server

import (
	"context"
	"encoding/json"
	"log"
	"sort"
	"strings"
	"sync"
	"time"
)

// Hub owns the mapping from room name to member connections and is the sole
// mutator of room state. A room exists in the mapping only while it has at
// least one member: it is created lazily on first join and deleted the
// moment its last member leaves or disconnects.
//
// Room names are trimmed of leading/trailing whitespace and compared
// case-sensitively; no other canonicalization is performed.
type Hub struct {
	clients    map[*Client]bool
	rooms      map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
	bus        *BroadcastBus
}

// NewHub creates and initializes a new Hub instance with all necessary
// channels and maps. The returned Hub is ready to manage WebSocket connections.
func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:    make(map[*Client]bool),
		rooms:      make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// GetRegisterChan returns the channel used for registering new clients to the hub.
// This channel is write-only from the caller's perspective.
func (h *Hub) GetRegisterChan() chan<- *Client {
	return h.register
}

// GetUnregisterChan returns the channel used for unregistering clients from the hub.
// This channel is write-only from the caller's perspective.
func (h *Hub) GetUnregisterChan() chan<- *Client {
	return h.unregister
}

// AttachBus connects the hub to a cross-instance broadcast bus. Remote
// publishes are delivered into local rooms until the hub shuts down.
func (h *Hub) AttachBus(bus *BroadcastBus) {
	h.bus = bus
	go bus.Subscribe(h.ctx, h.deliver)
}

// Join associates the client with the named room, creating the room if it
// does not exist yet. A client holds at most one room at a time: joining a
// new room removes it from the previous one first. Re-joining the current
// room is a no-op.
func (h *Hub) Join(client *Client, roomName string) {
	roomName = strings.TrimSpace(roomName)
	if roomName == "" || client == nil {
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	if client.room == roomName {
		return
	}

	h.removeFromRoomLocked(client)

	members := h.rooms[roomName]
	if members == nil {
		members = make(map[*Client]struct{})
		h.rooms[roomName] = members
	}
	members[client] = struct{}{}
	client.room = roomName

	activeRooms.Set(float64(len(h.rooms)))
	log.Printf("Client %s joined room %q (%d members)", client.id, roomName, len(members))
}

// Leave removes the client from its current room, deleting the room if it
// becomes empty. Calling Leave on a client with no room is a no-op.
func (h *Hub) Leave(client *Client) {
	if client == nil {
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.removeFromRoomLocked(client)
}

// removeFromRoomLocked detaches the client from its room and deletes the
// room entry when its member count reaches zero. Callers must hold h.mutex.
func (h *Hub) removeFromRoomLocked(client *Client) {
	if client.room == "" {
		return
	}

	roomName := client.room
	client.room = ""

	members, ok := h.rooms[roomName]
	if !ok {
		return
	}

	delete(members, client)
	if len(members) == 0 {
		delete(h.rooms, roomName)
		log.Printf("Room %q deleted (last member left)", roomName)
	}
	activeRooms.Set(float64(len(h.rooms)))
}

// Broadcast fans a chat message out to every current member of the named
// room, including the sender. The hub stamps the message with the broadcast
// time. If the room does not exist the message is silently dropped.
func (h *Hub) Broadcast(roomName, sender, text string) {
	payload, err := json.Marshal(BroadcastMessage{
		Sender:    sender,
		Text:      text,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		log.Printf("Error encoding broadcast for room %q: %v", roomName, err)
		return
	}

	if h.bus != nil {
		if err := h.bus.Publish(h.ctx, roomName, payload); err != nil {
			log.Printf("Error publishing broadcast for room %q to bus: %v", roomName, err)
		}
	}

	h.deliver(roomName, payload)
}

// deliver sends an already-encoded payload to the local members of a room.
// A failed send to one member never aborts delivery to the rest.
func (h *Hub) deliver(roomName string, payload []byte) {
	members := h.roomSnapshot(roomName)
	if len(members) == 0 {
		return
	}

	messagesBroadcast.Inc()

	var clientsToRemove []*Client
	for _, client := range members {
		if !h.safeSend(client, payload) {
			failedDeliveries.Inc()
			clientsToRemove = append(clientsToRemove, client)
		}
	}

	h.removeFailedClients(clientsToRemove)
}

// roomSnapshot returns a stable copy of a room's member set so the send
// loop never iterates a live map.
func (h *Hub) roomSnapshot(roomName string) []*Client {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	members, ok := h.rooms[roomName]
	if !ok {
		return nil
	}

	snapshot := make([]*Client, 0, len(members))
	for client := range members {
		snapshot = append(snapshot, client)
	}
	return snapshot
}

// Census returns a point-in-time listing of every active room and its member
// count, sorted by room name. The listing is advisory: it may be slightly
// stale by the time the caller reads it.
func (h *Hub) Census() []RoomStatus {
	h.mutex.RLock()
	statuses := make([]RoomStatus, 0, len(h.rooms))
	for name, members := range h.rooms {
		statuses = append(statuses, RoomStatus{Room: name, Clients: len(members)})
	}
	h.mutex.RUnlock()

	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Room < statuses[j].Room
	})
	return statuses
}

// roomOf returns the client's current room name, or "" if it has none.
func (h *Hub) roomOf(client *Client) string {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return client.room
}

func (h *Hub) safeSend(client *Client, message []byte) bool {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic in safeSend: %v", r)
		}
	}()

	// Hold the lock during the entire send operation to prevent race conditions
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	_, exists := h.clients[client]
	if !exists || client.closed {
		return false
	}

	// The send channel may be closed concurrently, hence the recover above.
	select {
	case client.send <- message:
		return true
	default:
		return false
	}
}

// Run starts the hub's main event loop, handling client registration,
// unregistration, and shutdown. This method should be called in a separate
// goroutine as it runs indefinitely.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return

		case client := <-h.register:
			if client == nil {
				log.Printf("Received nil client registration; skipping")
				continue
			}
			h.handleRegister(client)

		case client := <-h.unregister:
			h.handleUnregister(client)
		}
	}
}

func (h *Hub) handleRegister(client *Client) {
	h.mutex.Lock()
	client.closed = false
	h.clients[client] = true
	clientCount := len(h.clients)
	h.mutex.Unlock()

	connectedClients.Set(float64(clientCount))
	log.Printf("Client %s registered from %s. Total clients: %d", client.id, client.addr, clientCount)

	if room := currentConfig().DefaultRoom; room != "" {
		h.Join(client, room)
	}

	if client.conn == nil {
		return
	}

	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		client.writePump()
	}()
	go func() {
		defer h.wg.Done()
		client.readPump()
	}()
}

func (h *Hub) handleUnregister(client *Client) {
	h.mutex.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mutex.Unlock()
		return
	}

	delete(h.clients, client)
	client.closed = true
	h.removeFromRoomLocked(client)
	clientCount := len(h.clients)
	h.mutex.Unlock()

	// Close the channel after releasing the lock
	close(client.send)
	connectedClients.Set(float64(clientCount))
	log.Printf("Client %s unregistered from %s. Total clients: %d", client.id, client.addr, clientCount)
}

var hub = NewHub()

// removeFailedClients removes clients whose send buffers were full or whose
// channels were already closed, then closes their channels.
func (h *Hub) removeFailedClients(clientsToRemove []*Client) {
	if len(clientsToRemove) == 0 {
		return
	}

	h.mutex.Lock()
	var channelsToClose []chan []byte
	for _, client := range clientsToRemove {
		if _, exists := h.clients[client]; exists {
			delete(h.clients, client)
			client.closed = true
			h.removeFromRoomLocked(client)
			channelsToClose = append(channelsToClose, client.send)
			log.Printf("Client %s removed due to full send buffer", client.id)
		}
	}
	connectedClients.Set(float64(len(h.clients)))
	h.mutex.Unlock()

	// Close channels after releasing the lock
	for _, ch := range channelsToClose {
		close(ch)
	}
}

// shutdownClients gracefully closes all active client connections
func (h *Hub) shutdownClients() {
	log.Println("Shutting down all client connections...")

	h.mutex.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mutex.Unlock()

	for _, client := range clients {
		if client.conn != nil {
			if err := client.conn.Close(); err != nil {
				if !isExpectedCloseError(err) {
					log.Printf("Error closing client connection from %s: %v", client.addr, err)
				}
			}
		}
	}

	log.Printf("Closed %d client connections", len(clients))
}

// Shutdown initiates graceful shutdown of the hub and waits for all goroutines
// to complete. It returns after all client connections are closed and
// goroutines have finished, or when the timeout is reached.
func (h *Hub) Shutdown(timeout time.Duration) error {
	log.Println("Initiating hub shutdown...")

	h.cancel()

	// Wait for Run() to complete
	<-h.done

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("Hub shutdown completed successfully")
		return nil
	case <-time.After(timeout):
		log.Println("Hub shutdown timeout reached, some goroutines may still be running")
		return context.DeadlineExceeded
	}
}
