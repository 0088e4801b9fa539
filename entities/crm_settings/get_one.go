package crmsettings

import (
	"context"
	"net/http"

	"crm/database"
	"crm/entities"
	"crm/middlewares"
	"crm/utils"
)

// GetOne returns the organization's settings, creating the defaults on
// first access.
func (h *Handler) GetOne(w http.ResponseWriter, r *http.Request) {
	actor, ok := middlewares.RequireActor(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), database.MONGO_TIMEOUT)
	defer cancel()

	s, err := h.Settings.Get(ctx, actor)
	if err != nil {
		utils.SendError(w, err, utils.CANNOT_FIND_CRM_SETTINGS)
		return
	}

	utils.SendResponse(w, http.StatusOK, "", s, 0)
}

func (h *Handler) GetActiveSources(w http.ResponseWriter, r *http.Request) {
	actor, ok := middlewares.RequireActor(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), database.MONGO_TIMEOUT)
	defer cancel()

	sources, err := h.Settings.ActiveSources(ctx, actor.OrganizationID)
	if err != nil {
		utils.SendError(w, err, utils.CANNOT_FIND_CRM_SETTINGS)
		return
	}

	utils.SendResponse(w, http.StatusOK, "", entities.NonNil(sources), 0)
}

func (h *Handler) GetActiveStages(w http.ResponseWriter, r *http.Request) {
	actor, ok := middlewares.RequireActor(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), database.MONGO_TIMEOUT)
	defer cancel()

	stages, err := h.Settings.ActiveStages(ctx, actor.OrganizationID)
	if err != nil {
		utils.SendError(w, err, utils.CANNOT_FIND_CRM_SETTINGS)
		return
	}

	utils.SendResponse(w, http.StatusOK, "", entities.NonNil(stages), 0)
}

func (h *Handler) GetFieldConfig(w http.ResponseWriter, r *http.Request) {
	actor, ok := middlewares.RequireActor(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), database.MONGO_TIMEOUT)
	defer cancel()

	fields, err := h.Settings.FieldConfig(ctx, actor.OrganizationID)
	if err != nil {
		utils.SendError(w, err, utils.CANNOT_FIND_CRM_SETTINGS)
		return
	}

	utils.SendResponse(w, http.StatusOK, "", entities.NonNil(fields), 0)
}
