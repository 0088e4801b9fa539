package users

import "crm/auth"

// Handler serves registration, login and admin user management.
type Handler struct {
	Auth *auth.Service
}

func New(svc *auth.Service) *Handler {
	return &Handler{Auth: svc}
}
