package database

import (
	"context"
	"errors"
	"fmt"

	"crm/repository"
	"crm/schemas"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Collection implements repository.Collection on a MongoDB collection.
type Collection[T any] struct {
	coll *mongo.Collection
}

func NewCollection[T any](db *mongo.Database, name string) *Collection[T] {
	return &Collection[T]{coll: db.Collection(name)}
}

func (c *Collection[T]) Find(ctx context.Context, filter repository.Filter, opts repository.FindOptions) ([]T, error) {
	ctx, cancel := context.WithTimeout(ctx, MONGO_TIMEOUT)
	defer cancel()

	findOpts := options.Find()
	if opts.Sort != "" {
		dir := 1
		if opts.Desc {
			dir = -1
		}
		findOpts.SetSort(bson.D{{Key: opts.Sort, Value: dir}, {Key: "_id", Value: 1}})
	}
	if opts.Limit > 0 {
		findOpts.SetLimit(opts.Limit)
	}

	cursor, err := c.coll.Find(ctx, filter.Apply(opts.Deleted), findOpts)
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", c.coll.Name(), err)
	}
	defer cursor.Close(ctx)

	docs := []T{}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.coll.Name(), err)
	}
	return docs, nil
}

func (c *Collection[T]) FindOne(ctx context.Context, filter repository.Filter, scope repository.DeletedScope) (*T, error) {
	ctx, cancel := context.WithTimeout(ctx, MONGO_TIMEOUT)
	defer cancel()

	var doc T
	err := c.coll.FindOne(ctx, filter.Apply(scope)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.ErrNoDocuments
	}
	if err != nil {
		return nil, fmt.Errorf("find one in %s: %w", c.coll.Name(), err)
	}
	return &doc, nil
}

func (c *Collection[T]) Insert(ctx context.Context, doc *T) (bson.ObjectID, error) {
	ctx, cancel := context.WithTimeout(ctx, MONGO_TIMEOUT)
	defer cancel()

	res, err := c.coll.InsertOne(ctx, doc)
	if err != nil {
		return bson.NilObjectID, c.writeError("insert", err)
	}
	id, ok := res.InsertedID.(bson.ObjectID)
	if !ok {
		return bson.NilObjectID, fmt.Errorf("insert into %s: unexpected id type %T", c.coll.Name(), res.InsertedID)
	}
	return id, nil
}

func (c *Collection[T]) Replace(ctx context.Context, id bson.ObjectID, doc *T) error {
	ctx, cancel := context.WithTimeout(ctx, MONGO_TIMEOUT)
	defer cancel()

	res, err := c.coll.ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		return c.writeError("replace", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNoDocuments
	}
	return nil
}

func (c *Collection[T]) UpdateOne(ctx context.Context, filter repository.Filter, scope repository.DeletedScope, set bson.M) (*T, error) {
	ctx, cancel := context.WithTimeout(ctx, MONGO_TIMEOUT)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc T
	err := c.coll.FindOneAndUpdate(ctx, filter.Apply(scope), bson.M{"$set": set}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.ErrNoDocuments
	}
	if err != nil {
		return nil, c.writeError("update", err)
	}
	return &doc, nil
}

func (c *Collection[T]) UpdateMany(ctx context.Context, filter repository.Filter, scope repository.DeletedScope, set bson.M) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, MONGO_TIMEOUT)
	defer cancel()

	res, err := c.coll.UpdateMany(ctx, filter.Apply(scope), bson.M{"$set": set})
	if err != nil {
		return 0, c.writeError("update many", err)
	}
	return res.MatchedCount, nil
}

func (c *Collection[T]) Count(ctx context.Context, filter repository.Filter, scope repository.DeletedScope) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, MONGO_TIMEOUT)
	defer cancel()

	n, err := c.coll.CountDocuments(ctx, filter.Apply(scope))
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", c.coll.Name(), err)
	}
	return n, nil
}

func (c *Collection[T]) DeleteOne(ctx context.Context, filter repository.Filter) error {
	ctx, cancel := context.WithTimeout(ctx, MONGO_TIMEOUT)
	defer cancel()

	res, err := c.coll.DeleteOne(ctx, filter.Apply(repository.IncludeDeleted))
	if err != nil {
		return fmt.Errorf("delete from %s: %w", c.coll.Name(), err)
	}
	if res.DeletedCount == 0 {
		return repository.ErrNoDocuments
	}
	return nil
}

func (c *Collection[T]) writeError(op string, err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s %s: %w", op, c.coll.Name(), repository.ErrDuplicateKey)
	}
	return fmt.Errorf("%s %s: %w", op, c.coll.Name(), err)
}

// NewSet wires every repository to its MongoDB collection.
func NewSet(db *mongo.Database) *repository.Set {
	return &repository.Set{
		Leads:         repository.New[schemas.Lead]("lead", NewCollection[schemas.Lead](db, COLLECTION_LEADS)),
		Contacts:      repository.New[schemas.Contact]("contact", NewCollection[schemas.Contact](db, COLLECTION_CONTACTS)),
		Deals:         repository.New[schemas.Deal]("deal", NewCollection[schemas.Deal](db, COLLECTION_DEALS)),
		Accounts:      repository.New[schemas.Account]("account", NewCollection[schemas.Account](db, COLLECTION_ACCOUNTS)),
		DealStages:    repository.New[schemas.DealStage]("deal stage", NewCollection[schemas.DealStage](db, COLLECTION_DEAL_STAGES)),
		LeadHistory:   repository.New[schemas.LeadHistory]("lead history", NewCollection[schemas.LeadHistory](db, COLLECTION_LEAD_HISTORY)),
		Settings:      repository.New[schemas.CRMSettings]("crm settings", NewCollection[schemas.CRMSettings](db, COLLECTION_CRM_SETTINGS)),
		Users:         NewCollection[schemas.User](db, COLLECTION_USERS),
		Organizations: NewCollection[schemas.Organization](db, COLLECTION_ORGANIZATIONS),
	}
}
