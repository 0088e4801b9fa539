package repository

import "crm/schemas"

// Set bundles the repositories the services depend on.
type Set struct {
	Leads         *Repository[schemas.Lead]
	Contacts      *Repository[schemas.Contact]
	Deals         *Repository[schemas.Deal]
	Accounts      *Repository[schemas.Account]
	DealStages    *Repository[schemas.DealStage]
	LeadHistory   *Repository[schemas.LeadHistory]
	Settings      *Repository[schemas.CRMSettings]
	Users         Collection[schemas.User]
	Organizations Collection[schemas.Organization]
}

// NewMemorySet builds a Set over in-process collections with the same
// unique keys the MongoDB indexes enforce.
func NewMemorySet() *Set {
	return &Set{
		Leads:         New[schemas.Lead]("lead", NewMemoryCollection[schemas.Lead]()),
		Contacts:      New[schemas.Contact]("contact", NewMemoryCollection[schemas.Contact]()),
		Deals:         New[schemas.Deal]("deal", NewMemoryCollection[schemas.Deal]()),
		Accounts:      New[schemas.Account]("account", NewMemoryCollection[schemas.Account]().WithUnique("account_number")),
		DealStages:    New[schemas.DealStage]("deal stage", NewMemoryCollection[schemas.DealStage]()),
		LeadHistory:   New[schemas.LeadHistory]("lead history", NewMemoryCollection[schemas.LeadHistory]()),
		Settings:      New[schemas.CRMSettings]("crm settings", NewMemoryCollection[schemas.CRMSettings]().WithUnique("organization_id")),
		Users:         NewMemoryCollection[schemas.User]().WithUnique("email"),
		Organizations: NewMemoryCollection[schemas.Organization](),
	}
}
