package lifecycle

import (
	"context"
	"errors"
	"testing"

	"crm/apperrors"
	"crm/schemas"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateContactRequiresLastName(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.CreateContact(context.Background(), f.user, ContactInput{FirstName: str("Ann")})
	var verr *apperrors.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "is required", verr.Fields["last_name"])
}

func TestContactDeleteAndRestore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.createLead(t, LeadInput{LastName: str("Smith"), Email: str("a@b.com")})
	contactID := res.Contact.ID

	info, err := f.engine.ContactDeleteInfo(ctx, f.user, contactID)
	require.NoError(t, err)
	assert.True(t, info.CanDelete)
	assert.EqualValues(t, 1, info.RelatedLeads)
	assert.Zero(t, info.RelatedDeals)
	assert.Equal(t, []string{"Contact has 1 related lead(s)"}, info.Warnings)

	f.tick()
	deleted, err := f.engine.DeleteContact(ctx, f.admin, contactID, DeleteInput{Reason: schemas.DELETION_REASON_CUSTOMER_REQUEST})
	require.NoError(t, err)
	assert.True(t, deleted.Entity.Consistent())
	require.NotNil(t, deleted.Entity.DeletedBy)
	assert.Equal(t, f.admin.UserID, *deleted.Entity.DeletedBy)
	assert.True(t, deleted.Entity.DeletedAt.Equal(*f.clock))
	assert.Equal(t, info.Warnings, deleted.Warnings)

	// The related lead is left untouched.
	lead, err := f.engine.GetLead(ctx, f.user, res.Lead.ID)
	require.NoError(t, err)
	assert.Equal(t, contactID, lead.ContactID)

	contacts, err := f.engine.ListContacts(ctx, f.user, ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, contacts)
	contacts, err = f.engine.ListContacts(ctx, f.user, ListOptions{IncludeDeleted: true})
	require.NoError(t, err)
	assert.Len(t, contacts, 1)

	_, err = f.engine.GetContact(ctx, f.user, contactID)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	_, err = f.engine.UpdateContact(ctx, f.user, contactID, ContactInput{Notes: str("x")})
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	restored, err := f.engine.RestoreContact(ctx, f.admin, contactID)
	require.NoError(t, err)
	assert.False(t, restored.IsDeleted)
	assert.Nil(t, restored.DeletedAt)
	assert.Nil(t, restored.DeletionReason)
	assert.True(t, restored.Consistent())

	contacts, err = f.engine.ListContacts(ctx, f.user, ListOptions{})
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, contactID, contacts[0].ID)
}

func TestUpdateContactIsPartial(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.createContact(t, "Smith")

	updated, err := f.engine.UpdateContact(ctx, f.user, c.ID, ContactInput{Email: str("Ann@Example.com")})
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", updated.Email)
	assert.Equal(t, "Ann", updated.FirstName)
	assert.Equal(t, "Smith", updated.LastName)
	require.NotNil(t, updated.LastModifiedBy)
	assert.Equal(t, f.user.UserID, *updated.LastModifiedBy)

	_, err = f.engine.UpdateContact(ctx, f.otherOrg(), c.ID, ContactInput{Email: str("x@y.z")})
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}
