package stages

import (
	"net/http"

	"worklogz/source/utils"
)

// GetAll lists the active stages of a pipeline, seeding its defaults on
// first access.
func (h *Handler) GetAll(w http.ResponseWriter, r *http.Request) {
	stages, err := h.service.EnsureDefaultStages(r.Context(), r.URL.Query().Get("pipeline_type"))
	if err != nil {
		utils.SendError(w, err, utils.STAGES_CANNOT_LIST)
		return
	}

	utils.SendResponse(w, http.StatusOK, "", stages, 0)
}
