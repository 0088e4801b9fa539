package lifecycle

import (
	"context"
	"strings"

	"crm/apperrors"
	"crm/repository"
	"crm/schemas"
	"crm/validation"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type ContactInput struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name" validate:"omitnil,notblank"`
	Email     *string `json:"email" validate:"omitempty,email"`
	Phone     *string `json:"phone"`
	Company   *string `json:"company"`
	JobTitle  *string `json:"job_title"`
	Notes     *string `json:"notes"`
}

func (in *ContactInput) apply(c *schemas.Contact) bson.M {
	set := bson.M{}
	str := func(field string, src *string, dst *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
			set[field] = *dst
		}
	}
	str("first_name", in.FirstName, &c.FirstName)
	str("last_name", in.LastName, &c.LastName)
	str("email", in.Email, &c.Email)
	str("phone", in.Phone, &c.Phone)
	str("company", in.Company, &c.Company)
	str("job_title", in.JobTitle, &c.JobTitle)
	str("notes", in.Notes, &c.Notes)
	if in.Email != nil {
		c.Email = strings.ToLower(c.Email)
		set["email"] = c.Email
	}
	return set
}

func (e *Engine) CreateContact(ctx context.Context, actor schemas.Actor, in ContactInput) (*schemas.Contact, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	contact := &schemas.Contact{}
	in.apply(contact)
	if contact.LastName == "" {
		return nil, apperrors.Validation("last_name", "is required")
	}
	contact.Created(actor, e.now())

	saved, err := e.repos.Contacts.Insert(ctx, actor.OrganizationID, contact)
	if err != nil {
		return nil, err
	}
	e.publish(actor.OrganizationID, schemas.EVENT_CREATED, "contact", saved.ID, saved)
	return saved, nil
}

func (e *Engine) UpdateContact(ctx context.Context, actor schemas.Actor, id bson.ObjectID, in ContactInput) (*schemas.Contact, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	set := in.apply(&schemas.Contact{})
	for k, v := range modified(actor, e.now()) {
		set[k] = v
	}
	updated, err := e.repos.Contacts.Update(ctx, actor.OrganizationID, id, set)
	if err != nil {
		return nil, err
	}
	e.publish(actor.OrganizationID, schemas.EVENT_UPDATED, "contact", id, updated)
	return updated, nil
}

func (e *Engine) GetContact(ctx context.Context, actor schemas.Actor, id bson.ObjectID) (*schemas.Contact, error) {
	return e.repos.Contacts.Get(ctx, actor.OrganizationID, id, repository.ExcludeDeleted)
}

func (e *Engine) ListContacts(ctx context.Context, actor schemas.Actor, opts ListOptions) ([]schemas.Contact, error) {
	opts.ContactID = nil
	return list(ctx, e.repos.Contacts, actor, opts)
}

// DeleteContact soft-deletes a contact. Related leads and deals only raise
// warnings and are left untouched.
func (e *Engine) DeleteContact(ctx context.Context, actor schemas.Actor, id bson.ObjectID, in DeleteInput) (*DeleteResult[schemas.Contact], error) {
	deleted, info, err := softDelete(ctx, e, e.repos.Contacts, actor, id, in, e.contactDeleteInfo)
	if err != nil {
		return nil, err
	}
	return &DeleteResult[schemas.Contact]{Entity: deleted, Warnings: info.Warnings}, nil
}

func (e *Engine) RestoreContact(ctx context.Context, actor schemas.Actor, id bson.ObjectID) (*schemas.Contact, error) {
	return restore(ctx, e, e.repos.Contacts, actor, id)
}

func (e *Engine) ContactDeleteInfo(ctx context.Context, actor schemas.Actor, id bson.ObjectID) (DeleteInfo, error) {
	return deleteInfo(ctx, e.repos.Contacts, actor, id, e.contactDeleteInfo)
}
