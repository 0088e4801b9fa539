package accounts

import (
	"context"
	"encoding/json"
	"net/http"

	"crm/database"
	"crm/lifecycle"
	"crm/middlewares"
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

	input := lifecycle.AccountInput{}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.SendResponse(w, http.StatusBadRequest, "", nil, utils.INVALID_REQUEST_DATA)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), database.MONGO_TIMEOUT)
	defer cancel()

	result, err := h.Engine.UpdateAccount(ctx, actor, id, input)
	if err != nil {
		utils.SendError(w, err, utils.CANNOT_UPDATE_ACCOUNT)
		return
	}

	utils.SendResponse(w, http.StatusOK, "", result, 0)
}
