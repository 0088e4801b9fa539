package entities

import (
	"net/http"

	"crm/lifecycle"
	"crm/utils"
)

// ListOptions reads the include_deleted, deleted_only, contact_id and
// lead_id query parameters shared by the entity listings.
func ListOptions(r *http.Request) (lifecycle.ListOptions, error) {
	opts := lifecycle.ListOptions{}
	var err error
	if opts.IncludeDeleted, err = utils.QueryBool(r, "include_deleted"); err != nil {
		return opts, err
	}
	if opts.DeletedOnly, err = utils.QueryBool(r, "deleted_only"); err != nil {
		return opts, err
	}
	if opts.ContactID, err = utils.QueryObjectID(r, "contact_id"); err != nil {
		return opts, err
	}
	if opts.LeadID, err = utils.QueryObjectID(r, "lead_id"); err != nil {
		return opts, err
	}
	return opts, nil
}

// NonNil keeps empty listings encoded as [] rather than null.
func NonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
