package deals

import "crm/lifecycle"

// Handler serves the deal routes.
type Handler struct {
	Engine *lifecycle.Engine
}

func New(engine *lifecycle.Engine) *Handler {
	return &Handler{Engine: engine}
}
