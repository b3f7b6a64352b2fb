// Package server wires HTTP handlers into a router for the roomrelay
// application via routing helpers.
package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// SetupRoutes configures the application's routes and returns the handler
// chain with the CORS layer applied. Preflight requests are answered
// permissively; unmatched routes fall through to the 404 handler.
func SetupRoutes() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/ws", WebSocketHandler).Methods(http.MethodGet)
	r.HandleFunc("/active-rooms", ActiveRoomsHandler).Methods(http.MethodGet)
	r.HandleFunc("/healthz", HealthHandler).Methods(http.MethodGet)
	r.Handle("/metrics", MetricsHandler()).Methods(http.MethodGet)

	// Preflights are answered by the CORS layer below; every other OPTIONS
	// request, on any path, gets the same permissive response.
	r.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(OptionsHandler)

	r.NotFoundHandler = http.HandlerFunc(NotFoundHandler)
	r.MethodNotAllowedHandler = http.HandlerFunc(NotFoundHandler)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(r)
}
