package users

import (
	"context"
	"encoding/json"
	"net/http"

	"crm/auth"
	"crm/database"
	"crm/schemas"
	"crm/utils"
)

type tokenResponse struct {
	Token string        `json:"token"`
	User  *schemas.User `json:"user"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	input := auth.RegisterInput{}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.SendResponse(w, http.StatusBadRequest, "", nil, utils.INVALID_REQUEST_DATA)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), database.MONGO_TIMEOUT)
	defer cancel()

	user, err := h.Auth.Register(ctx, input)
	if err != nil {
		utils.SendError(w, err, utils.CANNOT_REGISTER_USER)
		return
	}

	token, err := h.Auth.IssueToken(user)
	if err != nil {
		utils.SendError(w, err, utils.CANNOT_REGISTER_USER)
		return
	}

	utils.SendResponse(w, http.StatusCreated, "", tokenResponse{Token: token, User: user}, 0)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	input := auth.LoginInput{}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.SendResponse(w, http.StatusBadRequest, "", nil, utils.INVALID_REQUEST_DATA)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), database.MONGO_TIMEOUT)
	defer cancel()

	token, user, err := h.Auth.Login(ctx, input)
	if err != nil {
		utils.SendError(w, err, utils.CANNOT_LOGIN_USER)
		return
	}

	utils.SendResponse(w, http.StatusOK, "", tokenResponse{Token: token, User: user}, 0)
}
