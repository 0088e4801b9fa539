package contacts

import "crm/lifecycle"

// Handler serves the contact routes.
type Handler struct {
	Engine *lifecycle.Engine
}

func New(engine *lifecycle.Engine) *Handler {
	return &Handler{Engine: engine}
}
