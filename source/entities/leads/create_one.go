package leads

import (
	"net/http"

	"worklogz/source/schemas"
	"worklogz/source/utils"
)

func (h *Handler) CreateOne(w http.ResponseWriter, r *http.Request) {
	input := schemas.LeadInput{}
	if err := utils.DecodeBody(r, &input); err != nil {
		utils.SendResponse(w, http.StatusBadRequest, "", nil, utils.LEADS_INVALID_REQUEST_DATA)
		return
	}

	if input.Stage == "" {
		if _, err := h.service.EnsureDefaultStages(r.Context(), input.PipelineType); err != nil {
			utils.SendError(w, err, utils.STAGES_CANNOT_SEED)
			return
		}
	}

	lead, err := h.service.CreateLead(r.Context(), input, actor(r))
	if err != nil {
		utils.SendError(w, err, utils.LEADS_CANNOT_CREATE)
		return
	}

	utils.SendResponse(w, http.StatusCreated, "Lead created", lead, 0)
}
