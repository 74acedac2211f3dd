package stages

import (
	"net/http"

	"worklogz/source/schemas"
	"worklogz/source/utils"
)

func (h *Handler) Reorder(w http.ResponseWriter, r *http.Request) {
	input := schemas.StageReorderInput{}
	if err := utils.DecodeBody(r, &input); err != nil {
		utils.SendResponse(w, http.StatusBadRequest, "", nil, utils.STAGES_INVALID_REQUEST_DATA)
		return
	}

	stages, err := h.service.ReorderStages(r.Context(), input.PipelineType, input.StageOrder)
	if err != nil {
		utils.SendError(w, err, utils.STAGES_CANNOT_REORDER)
		return
	}

	utils.SendResponse(w, http.StatusOK, "Stages reordered", stages, 0)
}
