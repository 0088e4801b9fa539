package accounts

import (
	"context"
	"net/http"

	"crm/database"
	"crm/middlewares"
	"crm/utils"
)

func (h *Handler) GetDeleteInfo(w http.ResponseWriter, r *http.Request) {
	actor, ok := middlewares.RequireActor(w, r)
	if !ok {
		return
	}

	id, err := utils.PathObjectID(r, "id")
	if err != nil {
		utils.SendResponse(w, http.StatusBadRequest, "", nil, utils.INVALID_ID_FORMAT)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), database.MONGO_TIMEOUT)
	defer cancel()

	info, err := h.Engine.AccountDeleteInfo(ctx, actor, id)
	if err != nil {
		utils.SendError(w, err, utils.CANNOT_FIND_ACCOUNT)
		return
	}

	utils.SendResponse(w, http.StatusOK, "", info, 0)
}
