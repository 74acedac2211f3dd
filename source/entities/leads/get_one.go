package leads

import (
	"net/http"

	"worklogz/source/utils"
)

func (h *Handler) GetOne(w http.ResponseWriter, r *http.Request) {
	lead, err := h.service.GetLead(r.Context(), r.PathValue("id"))
	if err != nil {
		utils.SendError(w, err, utils.LEADS_CANNOT_GET)
		return
	}

	utils.SendResponse(w, http.StatusOK, "", lead, 0)
}
