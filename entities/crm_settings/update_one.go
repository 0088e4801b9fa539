package crmsettings

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

	input := settings.UpdateInput{}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.SendResponse(w, http.StatusBadRequest, "", nil, utils.INVALID_REQUEST_DATA)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), database.MONGO_TIMEOUT)
	defer cancel()

	s, err := h.Settings.Update(ctx, actor, input)
	if err != nil {
		utils.SendError(w, err, utils.CANNOT_UPDATE_CRM_SETTINGS)
		return
	}

	utils.SendResponse(w, http.StatusOK, "CRM settings updated successfully", s, 0)
}

// Reset restores the default field, source and stage configuration.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	actor, ok := middlewares.RequireActor(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), database.MONGO_TIMEOUT)
	defer cancel()

	s, err := h.Settings.Reset(ctx, actor)
	if err != nil {
		utils.SendError(w, err, utils.CANNOT_UPDATE_CRM_SETTINGS)
		return
	}

	utils.SendResponse(w, http.StatusOK, "CRM settings reset to defaults", s, 0)
}
