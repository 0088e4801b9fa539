package leads

import (
	"context"
	"net/http"

	"crm/database"
	"crm/lifecycle"
	"crm/middlewares"
	"crm/utils"
)

// DeleteOne soft-deletes the lead. The body may carry reason, notes and contact_action.
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

	input := lifecycle.DeleteInput{}
	if err := utils.DecodeBody(r, &input); err != nil {
		utils.SendResponse(w, http.StatusBadRequest, "", nil, utils.INVALID_REQUEST_DATA)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), database.MONGO_TIMEOUT)
	defer cancel()

	result, err := h.Engine.DeleteLead(ctx, actor, id, input)
	if err != nil {
		utils.SendError(w, err, utils.CANNOT_DELETE_LEAD)
		return
	}

	utils.SendResponse(w, http.StatusOK, "Lead deleted successfully", result, 0)
}
