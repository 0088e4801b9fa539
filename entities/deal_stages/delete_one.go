package dealstages

import (
	"context"
	"net/http"

	"crm/database"
	"crm/middlewares"
	"crm/utils"
)

// DeleteOne removes a stage permanently. Stages still used by deals are kept.
func (h *Handler) DeleteOne(w http.ResponseWriter, r *http.Request) {
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

	if err := h.Stages.Delete(ctx, actor, id); err != nil {
		utils.SendError(w, err, utils.CANNOT_DELETE_DEAL_STAGE)
		return
	}

	utils.SendResponse(w, http.StatusOK, "Deal stage deleted successfully", nil, 0)
}
