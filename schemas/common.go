package schemas

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type ApiResponse struct {
	Message string            `json:"message,omitempty"`
	Data    any               `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// Audit holds the ownership and lifecycle fields shared by every tenant document.
type Audit struct {
	OrganizationID bson.ObjectID  `json:"organization_id" bson:"organization_id"`
	CreatedBy      bson.ObjectID  `json:"created_by" bson:"created_by"`
	LastModifiedBy *bson.ObjectID `json:"last_modified_by" bson:"last_modified_by"`
	CreatedAt      time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" bson:"updated_at"`
}

func (a *Audit) Tenant() bson.ObjectID { return a.OrganizationID }

func (a *Audit) SetTenant(orgID bson.ObjectID) { a.OrganizationID = orgID }

// Created stamps a new document as created by the actor.
func (a *Audit) Created(actor Actor, now time.Time) {
	a.OrganizationID = actor.OrganizationID
	a.CreatedBy = actor.UserID
	a.CreatedAt = now
	a.UpdatedAt = now
}

// Modified stamps a document as modified by the actor.
func (a *Audit) Modified(actor Actor, now time.Time) {
	by := actor.UserID
	a.LastModifiedBy = &by
	a.UpdatedAt = now
}

const (
	ROLE_ADMIN = "admin"
	ROLE_USER  = "user"
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID         bson.ObjectID `json:"id"`
	OrganizationID bson.ObjectID `json:"organization_id"`
	Role           string        `json:"role"`
}

func (a Actor) IsAdmin() bool { return a.Role == ROLE_ADMIN }
