package main

import (
	"context"
	"errors"
	"testing"

	"crm/repository"
	"crm/schemas"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupUserNormalizesEmail(t *testing.T) {
	ctx := context.Background()
	users := repository.NewMemoryCollection[schemas.User]().WithUnique("email")
	id, err := users.Insert(ctx, &schemas.User{LastName: "Admin", Email: "admin@org.com", Role: schemas.ROLE_ADMIN})
	require.NoError(t, err)

	user, err := lookupUser(ctx, users, "  Admin@Org.com ")
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)

	_, err = lookupUser(ctx, users, "nobody@org.com")
	assert.True(t, errors.Is(err, repository.ErrNoDocuments))
}
