package crmsettings

import "crm/settings"

type Handler struct {
	Settings *settings.Resolver
}

func New(resolver *settings.Resolver) *Handler {
	return &Handler{Settings: resolver}
}
