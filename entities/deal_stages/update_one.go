package dealstages

import (
	"context"
	"encoding/json"
	"net/http"

	"crm/database"
	"crm/middlewares"
	"crm/settings"
	"crm/utils"
)

func (h *Handler) UpdateOne(w http.ResponseWriter, r *http.Request) {
	actor, ok := middlewares.RequireActor(w, r)
	if !ok {
		return
	}

	id, err := utils.PathObjectID(r, "id")
	if err != nil {
		utils.SendResponse(w, http.StatusBadRequest, "", nil, utils.INVALID_ID_FORMAT)
		return
	}

	input := settings.StageInput{}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.SendResponse(w, http.StatusBadRequest, "", nil, utils.INVALID_REQUEST_DATA)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), database.MONGO_TIMEOUT)
	defer cancel()

	stage, err := h.Stages.Update(ctx, actor, id, input)
	if err != nil {
		utils.SendError(w, err, utils.CANNOT_UPDATE_DEAL_STAGE)
		return
	}

	utils.SendResponse(w, http.StatusOK, "", stage, 0)
}

type reorderRequest struct {
	StageOrders []settings.StageOrder `json:"stage_orders"`
}

func (h *Handler) Reorder(w http.ResponseWriter, r *http.Request) {
	actor, ok := middlewares.RequireActor(w, r)
	if !ok {
		return
	}

	input := reorderRequest{}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || len(input.StageOrders) == 0 {
		utils.SendResponse(w, http.StatusBadRequest, "", nil, utils.INVALID_REQUEST_DATA)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), database.MONGO_TIMEOUT)
	defer cancel()

	stages, err := h.Stages.Reorder(ctx, actor, input.StageOrders)
	if err != nil {
		utils.SendError(w, err, utils.CANNOT_UPDATE_DEAL_STAGE)
		return
	}

	utils.SendResponse(w, http.StatusOK, "", stages, 0)
}
