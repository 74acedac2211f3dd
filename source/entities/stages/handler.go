package stages

import "worklogz/source/pipeline"

type Handler struct {
	service *pipeline.Service
}

func NewHandler(service *pipeline.Service) *Handler {
	return &Handler{service: service}
}
