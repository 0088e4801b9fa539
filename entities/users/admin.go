package users

import (
	"context"
	"encoding/json"
	"net/http"

	"crm/auth"
	"crm/database"
	"crm/entities"
	"crm/middlewares"
	"crm/utils"
)

func (h *Handler) CreateOne(w http.ResponseWriter, r *http.Request) {
	actor, ok := middlewares.RequireActor(w, r)
	if !ok {
		return
	}

	input := auth.CreateUserInput{}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.SendResponse(w, http.StatusBadRequest, "", nil, utils.INVALID_REQUEST_DATA)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), database.MONGO_TIMEOUT)
	defer cancel()

	user, err := h.Auth.CreateUser(ctx, actor, input)
	if err != nil {
		utils.SendError(w, err, utils.CANNOT_CREATE_USER)
		return
	}

	utils.SendResponse(w, http.StatusCreated, "", user, 0)
}

func (h *Handler) GetAll(w http.ResponseWriter, r *http.Request) {
	actor, ok := middlewares.RequireActor(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), database.MONGO_TIMEOUT)
	defer cancel()

	users, err := h.Auth.ListUsers(ctx, actor)
	if err != nil {
		utils.SendError(w, err, utils.CANNOT_LIST_USERS)
		return
	}

	utils.SendResponse(w, http.StatusOK, "", entities.NonNil(users), 0)
}
