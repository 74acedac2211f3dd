package leads

import (
	"net/http"

	"worklogz/source/schemas"
	"worklogz/source/utils"
)

// MoveOne places a lead at a position of a stage column.
func (h *Handler) MoveOne(w http.ResponseWriter, r *http.Request) {
	input := schemas.LeadMoveInput{}
	if err := utils.DecodeBody(r, &input); err != nil {
		utils.SendResponse(w, http.StatusBadRequest, "", nil, utils.LEADS_INVALID_REQUEST_DATA)
		return
	}

	lead, err := h.service.MoveLead(r.Context(), r.PathValue("id"), input, actor(r))
	if err != nil {
		utils.SendError(w, err, utils.LEADS_CANNOT_MOVE)
		return
	}

	utils.SendResponse(w, http.StatusOK, "Lead moved", lead, 0)
}
