package stages

import (
	"net/http"

	"worklogz/source/utils"
)

// DeleteOne archives default stages and removes custom ones.
func (h *Handler) DeleteOne(w http.ResponseWriter, r *http.Request) {
	stage, err := h.service.DeleteStage(r.Context(), r.PathValue("id"))
	if err != nil {
		utils.SendError(w, err, utils.STAGES_CANNOT_DELETE)
		return
	}

	message := "Stage deleted"
	if stage.IsArchived {
		message = "Stage archived"
	}
	utils.SendResponse(w, http.StatusOK, message, stage, 0)
}
