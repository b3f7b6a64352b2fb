// Package server implements the core HTTP and WebSocket functionality for roomrelay.
//
// The implementation is organized into specialized files for configuration,
// the room hub, clients, routing, metrics, and HTTP handlers to keep the
// codebase maintainable and testable as the project grows.
package server
