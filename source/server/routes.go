// Package server assembles the HTTP routes of the pipeline API.
package server

import (
	"net/http"

	"worklogz/source/entities/leads"
	"worklogz/source/entities/stages"
	"worklogz/source/entities/users"
	"worklogz/source/events"
	"worklogz/source/middlewares"
	"worklogz/source/pipeline"
	"worklogz/source/schemas"
)

type Dependencies struct {
	Service        *pipeline.Service
	Directory      users.Directory
	Hub            *events.Hub
	AllowedOrigins []string
	// Auth guards every route, the websocket included.
	Auth func(http.Handler) http.Handler
}

type rememberer interface {
	Remember(user schemas.User)
}

func NewRouter(deps Dependencies) http.Handler {
	stagesHandler := stages.NewHandler(deps.Service)
	leadsHandler := leads.NewHandler(deps.Service)
	usersHandler := users.NewHandler(deps.Directory)

	protect := func(handler http.HandlerFunc) http.Handler {
		var next http.Handler = handler
		if directory, ok := deps.Directory.(rememberer); ok {
			next = rememberUser(directory, next)
		}
		return deps.Auth(next)
	}

	mux := http.NewServeMux()

	mux.Handle("GET /v1/stages", protect(stagesHandler.GetAll))
	mux.Handle("POST /v1/stages", protect(stagesHandler.CreateOne))
	mux.Handle("POST /v1/stages/reorder", protect(stagesHandler.Reorder))
	mux.Handle("PUT /v1/stages/{id}", protect(stagesHandler.UpdateOne))
	mux.Handle("DELETE /v1/stages/{id}", protect(stagesHandler.DeleteOne))

	mux.Handle("GET /v1/leads", protect(leadsHandler.GetAll))
	mux.Handle("GET /v1/leads/{id}", protect(leadsHandler.GetOne))
	mux.Handle("POST /v1/leads", protect(leadsHandler.CreateOne))
	mux.Handle("PUT /v1/leads/{id}", protect(leadsHandler.UpdateOne))
	mux.Handle("PATCH /v1/leads/{id}/move", protect(leadsHandler.MoveOne))
	mux.Handle("DELETE /v1/leads/{id}", protect(leadsHandler.DeleteOne))

	mux.Handle("GET /v1/users/team", protect(usersHandler.GetTeam))
	mux.Handle("GET /v1/me", protect(usersHandler.GetMe))

	if deps.Hub != nil {
		mux.Handle("GET /v1/ws/pipeline", protect(deps.Hub.Handler))
	}

	return middlewares.RequestLogger(middlewares.SecurityHeaders(middlewares.Cors(deps.AllowedOrigins)(mux)))
}

// rememberUser records authenticated users in directories that learn
// members as they sign in.
func rememberUser(directory rememberer, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, ok := middlewares.UserFromContext(r.Context()); ok {
			directory.Remember(user)
		}
		next.ServeHTTP(w, r)
	})
}
