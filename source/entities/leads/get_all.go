package leads

import (
	"net/http"

	"worklogz/source/schemas"
	"worklogz/source/utils"
)

// GetAll lists the leads of a pipeline in board order. Stages are seeded
// first so a fresh pipeline renders its columns.
func (h *Handler) GetAll(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := schemas.LeadFilter{
		PipelineType: query.Get("pipeline_type"),
		Stage:        query.Get("stage"),
		Course:       query.Get("course"),
		Source:       query.Get("source"),
		Status:       query.Get("status"),
		Search:       query.Get("search"),
	}

	if _, err := h.service.EnsureDefaultStages(r.Context(), filter.PipelineType); err != nil {
		utils.SendError(w, err, utils.STAGES_CANNOT_SEED)
		return
	}

	leads, err := h.service.ListLeads(r.Context(), filter)
	if err != nil {
		utils.SendError(w, err, utils.LEADS_CANNOT_LIST)
		return
	}

	utils.SendResponse(w, http.StatusOK, "", leads, 0)
}
