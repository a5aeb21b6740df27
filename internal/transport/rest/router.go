package rest

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/blastroyale/partysync/internal/service"
	"github.com/blastroyale/partysync/internal/transport/rest/handler"
	"github.com/blastroyale/partysync/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	DirectoryService *service.DirectoryService
	WSHub            *ws.Hub
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	groupHandler := handler.NewGroupHandler(c.DirectoryService)
	wsHandler := ws.NewHandler(c.WSHub, c.DirectoryService)

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	v1.HandleFunc("/groups", groupHandler.Create).Methods("POST")
	v1.HandleFunc("/groups", groupHandler.Find).Methods("GET")
	v1.HandleFunc("/groups/{id}", groupHandler.Get).Methods("GET")
	v1.HandleFunc("/groups/{id}", groupHandler.Update).Methods("PATCH")
	v1.HandleFunc("/groups/{id}/members", groupHandler.Join).Methods("POST")
	v1.HandleFunc("/groups/{id}/leave", groupHandler.Leave).Methods("POST")
	v1.HandleFunc("/groups/{id}/members/{memberId}", groupHandler.RemoveMember).Methods("DELETE")

	// WebSocket route (membership checked before upgrade)
	v1.HandleFunc("/ws/groups/{id}", wsHandler.Subscribe).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	return r
}
