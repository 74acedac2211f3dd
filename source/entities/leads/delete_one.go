package leads

import (
	"net/http"

	"worklogz/source/utils"
)

func (h *Handler) DeleteOne(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteLead(r.Context(), r.PathValue("id")); err != nil {
		utils.SendError(w, err, utils.LEADS_CANNOT_DELETE)
		return
	}

	utils.SendResponse(w, http.StatusOK, "Lead deleted", nil, 0)
}
