package dealstages

import (
	"context"
	"net/http"

	"crm/database"
	"crm/entities"
	"crm/middlewares"
	"crm/utils"
)

func (h *Handler) GetAll(w http.ResponseWriter, r *http.Request) {
	actor, ok := middlewares.RequireActor(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), database.MONGO_TIMEOUT)
	defer cancel()

	stages, err := h.Stages.List(ctx, actor)
	if err != nil {
		utils.SendError(w, err, utils.CANNOT_LIST_DEAL_STAGES)
		return
	}

	utils.SendResponse(w, http.StatusOK, "", entities.NonNil(stages), 0)
}

func (h *Handler) GetActive(w http.ResponseWriter, r *http.Request) {
	actor, ok := middlewares.RequireActor(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), database.MONGO_TIMEOUT)
	defer cancel()

	stages, err := h.Stages.Active(ctx, actor)
	if err != nil {
		utils.SendError(w, err, utils.CANNOT_LIST_DEAL_STAGES)
		return
	}

	utils.SendResponse(w, http.StatusOK, "", entities.NonNil(stages), 0)
}
