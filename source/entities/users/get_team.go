package users

import (
	"net/http"

	"worklogz/source/utils"
)

type Handler struct {
	directory Directory
}

func NewHandler(directory Directory) *Handler {
	return &Handler{directory: directory}
}

func (h *Handler) GetTeam(w http.ResponseWriter, r *http.Request) {
	members, err := h.directory.ListMembers(r.Context())
	if err != nil {
		utils.SendError(w, err, utils.USERS_CANNOT_LIST)
		return
	}

	utils.SendResponse(w, http.StatusOK, "", members, 0)
}
