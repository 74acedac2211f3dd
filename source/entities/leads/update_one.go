package leads

import (
	"net/http"

	"worklogz/source/schemas"
	"worklogz/source/utils"
)

func (h *Handler) UpdateOne(w http.ResponseWriter, r *http.Request) {
	patch := schemas.LeadPatch{}
	if err := utils.DecodeBody(r, &patch); err != nil {
		utils.SendResponse(w, http.StatusBadRequest, "", nil, utils.LEADS_INVALID_REQUEST_DATA)
		return
	}

	lead, err := h.service.UpdateLead(r.Context(), r.PathValue("id"), patch, actor(r))
	if err != nil {
		utils.SendError(w, err, utils.LEADS_CANNOT_UPDATE)
		return
	}

	utils.SendResponse(w, http.StatusOK, "Lead updated", lead, 0)
}
