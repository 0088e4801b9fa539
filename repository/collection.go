package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// ErrNoDocuments is returned by single-document operations that match nothing.
var ErrNoDocuments = errors.New("no documents matched")

// Filter is an equality filter over top-level document fields.
type Filter map[string]any

// DeletedScope selects documents by their soft-delete state.
type DeletedScope int

const (
	ExcludeDeleted DeletedScope = iota
	OnlyDeleted
	IncludeDeleted
)

// ScopeFromFlags maps the include_deleted/deleted_only list flags to a scope.
func ScopeFromFlags(includeDeleted, deletedOnly bool) DeletedScope {
	switch {
	case deletedOnly:
		return OnlyDeleted
	case includeDeleted:
		return IncludeDeleted
	default:
		return ExcludeDeleted
	}
}

type FindOptions struct {
	Deleted DeletedScope
	Sort    string
	Desc    bool
	Limit   int64
}

// Collection is the document store contract. Implementations must apply the
// deleted scope on top of the filter and return post-update snapshots.
type Collection[T any] interface {
	Find(ctx context.Context, filter Filter, opts FindOptions) ([]T, error)
	FindOne(ctx context.Context, filter Filter, scope DeletedScope) (*T, error)
	Insert(ctx context.Context, doc *T) (bson.ObjectID, error)
	Replace(ctx context.Context, id bson.ObjectID, doc *T) error
	UpdateOne(ctx context.Context, filter Filter, scope DeletedScope, set bson.M) (*T, error)
	UpdateMany(ctx context.Context, filter Filter, scope DeletedScope, set bson.M) (int64, error)
	Count(ctx context.Context, filter Filter, scope DeletedScope) (int64, error)
	DeleteOne(ctx context.Context, filter Filter) error
}

// Apply returns a bson filter with the deleted scope merged in.
func (f Filter) Apply(scope DeletedScope) bson.M {
	out := bson.M{}
	for k, v := range f {
		out[k] = v
	}
	switch scope {
	case ExcludeDeleted:
		out["is_deleted"] = bson.M{"$ne": true}
	case OnlyDeleted:
		out["is_deleted"] = true
	}
	return out
}

func (f Filter) with(key string, value any) Filter {
	out := make(Filter, len(f)+1)
	for k, v := range f {
		out[k] = v
	}
	out[key] = value
	return out
}

// ErrDuplicateKey is returned when a write violates a unique index.
var ErrDuplicateKey = errors.New("duplicate key")
