package repository

import (
	"context"
	"errors"
	"time"

	"crm/apperrors"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Tenant is implemented by documents that belong to an organization.
type Tenant interface {
	SetTenant(orgID bson.ObjectID)
}

// Repository scopes every call of a Collection to one organization.
// Documents of another organization are reported as not found.
type Repository[T any] struct {
	Name string
	coll Collection[T]
}

func New[T any](name string, coll Collection[T]) *Repository[T] {
	return &Repository[T]{Name: name, coll: coll}
}

func (r *Repository[T]) notFound(err error) error {
	if errors.Is(err, ErrNoDocuments) {
		return apperrors.NotFound(r.Name)
	}
	return err
}

func (r *Repository[T]) Find(ctx context.Context, orgID bson.ObjectID, filter Filter, opts FindOptions) ([]T, error) {
	return r.coll.Find(ctx, filter.with("organization_id", orgID), opts)
}

func (r *Repository[T]) FindOne(ctx context.Context, orgID bson.ObjectID, filter Filter, scope DeletedScope) (*T, error) {
	doc, err := r.coll.FindOne(ctx, filter.with("organization_id", orgID), scope)
	if err != nil {
		return nil, r.notFound(err)
	}
	return doc, nil
}

func (r *Repository[T]) Get(ctx context.Context, orgID, id bson.ObjectID, scope DeletedScope) (*T, error) {
	return r.FindOne(ctx, orgID, Filter{"_id": id}, scope)
}

// Insert stamps the organization on doc, stores it and returns the stored snapshot.
func (r *Repository[T]) Insert(ctx context.Context, orgID bson.ObjectID, doc *T) (*T, error) {
	if t, ok := any(doc).(Tenant); ok {
		t.SetTenant(orgID)
	}
	id, err := r.coll.Insert(ctx, doc)
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, orgID, id, IncludeDeleted)
}

func (r *Repository[T]) Replace(ctx context.Context, orgID, id bson.ObjectID, doc *T) (*T, error) {
	if _, err := r.Get(ctx, orgID, id, IncludeDeleted); err != nil {
		return nil, err
	}
	if t, ok := any(doc).(Tenant); ok {
		t.SetTenant(orgID)
	}
	if err := r.coll.Replace(ctx, id, doc); err != nil {
		return nil, r.notFound(err)
	}
	return r.Get(ctx, orgID, id, IncludeDeleted)
}

// Update applies set to a live document and returns the new snapshot.
func (r *Repository[T]) Update(ctx context.Context, orgID, id bson.ObjectID, set bson.M) (*T, error) {
	return r.UpdateWhere(ctx, orgID, Filter{"_id": id}, ExcludeDeleted, set)
}

func (r *Repository[T]) UpdateWhere(ctx context.Context, orgID bson.ObjectID, filter Filter, scope DeletedScope, set bson.M) (*T, error) {
	doc, err := r.coll.UpdateOne(ctx, filter.with("organization_id", orgID), scope, set)
	if err != nil {
		return nil, r.notFound(err)
	}
	return doc, nil
}

func (r *Repository[T]) UpdateMany(ctx context.Context, orgID bson.ObjectID, filter Filter, set bson.M) (int64, error) {
	return r.coll.UpdateMany(ctx, filter.with("organization_id", orgID), IncludeDeleted, set)
}

func (r *Repository[T]) Count(ctx context.Context, orgID bson.ObjectID, filter Filter, scope DeletedScope) (int64, error) {
	return r.coll.Count(ctx, filter.with("organization_id", orgID), scope)
}

// Delete removes a document permanently.
func (r *Repository[T]) Delete(ctx context.Context, orgID, id bson.ObjectID) error {
	return r.notFound(r.coll.DeleteOne(ctx, Filter{"_id": id, "organization_id": orgID}))
}

type SoftDeleteParams struct {
	By     bson.ObjectID
	Reason string
	Notes  string
	At     time.Time
}

// SoftDelete writes the whole deletion envelope in one update. Only a live
// document matches, so deleting twice reports not found.
func (r *Repository[T]) SoftDelete(ctx context.Context, orgID, id bson.ObjectID, p SoftDeleteParams) (*T, error) {
	var notes *string
	if p.Notes != "" {
		notes = &p.Notes
	}
	return r.UpdateWhere(ctx, orgID, Filter{"_id": id}, ExcludeDeleted, bson.M{
		"is_deleted":       true,
		"deleted_at":       p.At,
		"deleted_by":       p.By,
		"deletion_reason":  p.Reason,
		"deletion_notes":   notes,
		"last_modified_by": p.By,
		"updated_at":       p.At,
	})
}

// Restore clears the deletion envelope of a deleted document.
func (r *Repository[T]) Restore(ctx context.Context, orgID, id, by bson.ObjectID, at time.Time) (*T, error) {
	return r.UpdateWhere(ctx, orgID, Filter{"_id": id}, OnlyDeleted, bson.M{
		"is_deleted":       false,
		"deleted_at":       nil,
		"deleted_by":       nil,
		"deletion_reason":  nil,
		"deletion_notes":   nil,
		"last_modified_by": by,
		"updated_at":       at,
	})
}
