package stages

import (
	"net/http"

	"worklogz/source/schemas"
	"worklogz/source/utils"
)

func (h *Handler) UpdateOne(w http.ResponseWriter, r *http.Request) {
	patch := schemas.StagePatch{}
	if err := utils.DecodeBody(r, &patch); err != nil {
		utils.SendResponse(w, http.StatusBadRequest, "", nil, utils.STAGES_INVALID_REQUEST_DATA)
		return
	}

	stage, err := h.service.UpdateStage(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		utils.SendError(w, err, utils.STAGES_CANNOT_UPDATE)
		return
	}

	utils.SendResponse(w, http.StatusOK, "Stage updated", stage, 0)
}
