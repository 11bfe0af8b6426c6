package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/facebank/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	identifyHandler := handlers.NewIdentifyHandler(s.identifier)
	voteHandler := handlers.NewVoteHandler(s.policy)
	peopleHandler := handlers.NewPeopleHandler()
	configHandler := handlers.NewConfigHandler(s.config, s.policy)
	statsHandler := handlers.NewStatsHandler()
	indexHandler := handlers.NewIndexHandler(statsHandler)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", handlers.HealthCheck)
		r.Get("/config", configHandler.Get)
		r.Get("/stats", statsHandler.Get)

		// Identification
		r.Post("/identify", identifyHandler.Identify)
		r.Post("/vote", voteHandler.Vote)

		// Person directory
		r.Get("/people", peopleHandler.List)
		r.Get("/people/{id}", peopleHandler.Get)
		r.Get("/people/{id}/faces", peopleHandler.Faces)

		// Face index maintenance
		r.Post("/index/rebuild", indexHandler.Rebuild)
	})

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"not found"}`))
	})
}
