package deals

import (
	"context"
	"net/http"

	"crm/database"
	"crm/middlewares"
	"crm/utils"
)

func (h *Handler) RestoreOne(w http.ResponseWriter, r *http.Request) {
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

	result, err := h.Engine.RestoreDeal(ctx, actor, id)
	if err != nil {
		utils.SendError(w, err, utils.CANNOT_RESTORE_DEAL)
		return
	}

	utils.SendResponse(w, http.StatusOK, "Deal restored successfully", result, 0)
}
