package stages

import (
	"net/http"

	"worklogz/source/schemas"
	"worklogz/source/utils"
)

func (h *Handler) CreateOne(w http.ResponseWriter, r *http.Request) {
	input := schemas.StageInput{}
	if err := utils.DecodeBody(r, &input); err != nil {
		utils.SendResponse(w, http.StatusBadRequest, "", nil, utils.STAGES_INVALID_REQUEST_DATA)
		return
	}

	stage, err := h.service.CreateStage(r.Context(), input)
	if err != nil {
		utils.SendError(w, err, utils.STAGES_CANNOT_CREATE)
		return
	}

	utils.SendResponse(w, http.StatusCreated, "Stage created", stage, 0)
}
