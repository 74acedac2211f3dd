package leads

import (
	"net/http"

	"worklogz/source/middlewares"
	"worklogz/source/pipeline"
)

type Handler struct {
	service *pipeline.Service
}

func NewHandler(service *pipeline.Service) *Handler {
	return &Handler{service: service}
}

func actor(r *http.Request) string {
	user, _ := middlewares.UserFromContext(r.Context())
	return user.ID
}
