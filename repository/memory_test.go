package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"crm/apperrors"
	"crm/schemas"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func newLead(last, stage string) *schemas.Lead {
	return &schemas.Lead{LastName: last, LeadStage: stage, LeadSource: "website"}
}

func TestRepositoryScopesByOrganization(t *testing.T) {
	ctx := context.Background()
	repo := New[schemas.Lead]("lead", NewMemoryCollection[schemas.Lead]())
	orgA, orgB := bson.NewObjectID(), bson.NewObjectID()

	lead, err := repo.Insert(ctx, orgA, newLead("Smith", "New"))
	require.NoError(t, err)
	assert.False(t, lead.ID.IsZero())
	assert.Equal(t, orgA, lead.OrganizationID)

	_, err = repo.Get(ctx, orgB, lead.ID, IncludeDeleted)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	_, err = repo.Update(ctx, orgB, lead.ID, bson.M{"last_name": "Jones"})
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	got, err := repo.Get(ctx, orgA, lead.ID, ExcludeDeleted)
	require.NoError(t, err)
	assert.Equal(t, "Smith", got.LastName)
}

func TestSoftDeleteAndRestoreEnvelope(t *testing.T) {
	ctx := context.Background()
	repo := New[schemas.Lead]("lead", NewMemoryCollection[schemas.Lead]())
	org, user := bson.NewObjectID(), bson.NewObjectID()
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	lead, err := repo.Insert(ctx, org, newLead("Smith", "New"))
	require.NoError(t, err)

	deleted, err := repo.SoftDelete(ctx, org, lead.ID, SoftDeleteParams{By: user, Reason: "spam", At: at})
	require.NoError(t, err)
	assert.True(t, deleted.IsDeleted)
	require.NotNil(t, deleted.DeletedAt)
	assert.True(t, deleted.DeletedAt.Equal(at))
	assert.Equal(t, user, *deleted.DeletedBy)
	assert.Equal(t, "spam", *deleted.DeletionReason)
	assert.Nil(t, deleted.DeletionNotes)
	assert.True(t, deleted.Consistent())

	_, err = repo.Get(ctx, org, lead.ID, ExcludeDeleted)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	_, err = repo.SoftDelete(ctx, org, lead.ID, SoftDeleteParams{By: user, Reason: "spam", At: at})
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	restored, err := repo.Restore(ctx, org, lead.ID, user, at.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, restored.IsDeleted)
	assert.Nil(t, restored.DeletedAt)
	assert.Nil(t, restored.DeletedBy)
	assert.Nil(t, restored.DeletionReason)
	assert.True(t, restored.Consistent())
	assert.Equal(t, "Smith", restored.LastName)

	_, err = repo.Restore(ctx, org, lead.ID, user, at)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestFindScopesSortAndLimit(t *testing.T) {
	ctx := context.Background()
	repo := New[schemas.DealStage]("deal stage", NewMemoryCollection[schemas.DealStage]())
	org := bson.NewObjectID()

	for _, s := range []schemas.DealStage{{Name: "B", Order: 2}, {Name: "C", Order: 3}, {Name: "A", Order: 1}} {
		_, err := repo.Insert(ctx, org, &s)
		require.NoError(t, err)
	}

	stages, err := repo.Find(ctx, org, Filter{}, FindOptions{Deleted: IncludeDeleted, Sort: "order"})
	require.NoError(t, err)
	require.Len(t, stages, 3)
	assert.Equal(t, []string{"A", "B", "C"}, []string{stages[0].Name, stages[1].Name, stages[2].Name})

	stages, err = repo.Find(ctx, org, Filter{}, FindOptions{Deleted: IncludeDeleted, Sort: "order", Desc: true, Limit: 1})
	require.NoError(t, err)
	require.Len(t, stages, 1)
	assert.Equal(t, "C", stages[0].Name)
}

func TestDeletedScopes(t *testing.T) {
	ctx := context.Background()
	repo := New[schemas.Contact]("contact", NewMemoryCollection[schemas.Contact]())
	org, user := bson.NewObjectID(), bson.NewObjectID()

	live, err := repo.Insert(ctx, org, &schemas.Contact{LastName: "Live"})
	require.NoError(t, err)
	gone, err := repo.Insert(ctx, org, &schemas.Contact{LastName: "Gone"})
	require.NoError(t, err)
	_, err = repo.SoftDelete(ctx, org, gone.ID, SoftDeleteParams{By: user, Reason: "other", At: time.Now()})
	require.NoError(t, err)

	cases := map[DeletedScope][]string{
		ExcludeDeleted: {"Live"},
		OnlyDeleted:    {"Gone"},
		IncludeDeleted: {"Live", "Gone"},
	}
	for scope, want := range cases {
		found, err := repo.Find(ctx, org, Filter{}, FindOptions{Deleted: scope})
		require.NoError(t, err)
		var names []string
		for _, c := range found {
			names = append(names, c.LastName)
		}
		assert.Equal(t, want, names, "scope %d", scope)
	}

	n, err := repo.Count(ctx, org, Filter{"_id": live.ID}, ExcludeDeleted)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestUniqueKeys(t *testing.T) {
	ctx := context.Background()
	users := NewMemoryCollection[schemas.User]().WithUnique("email")

	_, err := users.Insert(ctx, &schemas.User{Email: "a@example.com", LastName: "A"})
	require.NoError(t, err)
	_, err = users.Insert(ctx, &schemas.User{Email: "a@example.com", LastName: "B"})
	assert.True(t, errors.Is(err, ErrDuplicateKey))
}

func TestUpdateManyAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := New[schemas.DealStage]("deal stage", NewMemoryCollection[schemas.DealStage]())
	org := bson.NewObjectID()

	a, err := repo.Insert(ctx, org, &schemas.DealStage{Name: "A", IsDefault: true})
	require.NoError(t, err)
	_, err = repo.Insert(ctx, org, &schemas.DealStage{Name: "B", IsDefault: true})
	require.NoError(t, err)

	n, err := repo.UpdateMany(ctx, org, Filter{"is_default": true}, bson.M{"is_default": false})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	require.NoError(t, repo.Delete(ctx, org, a.ID))
	assert.True(t, errors.Is(repo.Delete(ctx, org, a.ID), apperrors.ErrNotFound))

	left, err := repo.Count(ctx, org, Filter{"is_default": false}, IncludeDeleted)
	require.NoError(t, err)
	assert.EqualValues(t, 1, left)
}
