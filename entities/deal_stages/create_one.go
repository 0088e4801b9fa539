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

func (h *Handler) CreateOne(w http.ResponseWriter, r *http.Request) {
	actor, ok := middlewares.RequireActor(w, r)
	if !ok {
		return
	}

	input := settings.StageInput{}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.SendResponse(w, http.StatusBadRequest, "", nil, utils.INVALID_REQUEST_DATA)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), database.MONGO_TIMEOUT)
	defer cancel()

	stage, err := h.Stages.Create(ctx, actor, input)
	if err != nil {
		utils.SendError(w, err, utils.CANNOT_CREATE_DEAL_STAGE)
		return
	}

	utils.SendResponse(w, http.StatusCreated, "", stage, 0)
}

// Initialize seeds the default stages for an organization that has none.
func (h *Handler) Initialize(w http.ResponseWriter, r *http.Request) {
	actor, ok := middlewares.RequireActor(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), database.MONGO_TIMEOUT)
	defer cancel()

	stages, err := h.Stages.Initialize(ctx, actor)
	if err != nil {
		utils.SendError(w, err, utils.CANNOT_CREATE_DEAL_STAGE)
		return
	}

	utils.SendResponse(w, http.StatusCreated, "Default deal stages created successfully", stages, 0)
}
