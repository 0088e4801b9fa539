package dealstages

import "crm/settings"

// Handler serves the deal stage catalog. Every route except GetActive is
// restricted to admins by settings.Stages.
type Handler struct {
	Stages *settings.Stages
}

func New(stages *settings.Stages) *Handler {
	return &Handler{Stages: stages}
}
