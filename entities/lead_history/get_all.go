package leadhistory

import (
	"context"
	"net/http"

	"crm/database"
	"crm/entities"
	"crm/lifecycle"
	"crm/middlewares"
	"crm/utils"
)

type Handler struct {
	Engine *lifecycle.Engine
}

func New(engine *lifecycle.Engine) *Handler {
	return &Handler{Engine: engine}
}

// GetAll lists the history rows of one lead, newest first.
func (h *Handler) GetAll(w http.ResponseWriter, r *http.Request) {
	actor, ok := middlewares.RequireActor(w, r)
	if !ok {
		return
	}

	leadID, err := utils.PathObjectID(r, "leadId")
	if err != nil {
		utils.SendResponse(w, http.StatusBadRequest, "", nil, utils.INVALID_ID_FORMAT)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), database.MONGO_TIMEOUT)
	defer cancel()

	rows, err := h.Engine.LeadHistory(ctx, actor, leadID)
	if err != nil {
		utils.SendError(w, err, utils.CANNOT_LIST_LEAD_HISTORY)
		return
	}

	utils.SendResponse(w, http.StatusOK, "", entities.NonNil(rows), 0)
}
