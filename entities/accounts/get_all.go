package accounts

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

	opts, err := entities.ListOptions(r)
	if err != nil {
		utils.SendResponse(w, http.StatusBadRequest, "", nil, utils.INVALID_QUERY_PARAMETER)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), database.MONGO_TIMEOUT)
	defer cancel()

	accounts, err := h.Engine.ListAccounts(ctx, actor, opts)
	if err != nil {
		utils.SendError(w, err, utils.CANNOT_LIST_ACCOUNTS)
		return
	}

	utils.SendResponse(w, http.StatusOK, "", entities.NonNil(accounts), 0)
}
