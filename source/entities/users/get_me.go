package users

import (
	"net/http"

	"worklogz/source/middlewares"
	"worklogz/source/utils"
)

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middlewares.UserFromContext(r.Context())
	if !ok {
		utils.SendResponse(w, http.StatusUnauthorized, "Unauthenticated user", nil, 0)
		return
	}

	utils.SendResponse(w, http.StatusOK, "", user, 0)
}
