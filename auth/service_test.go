package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"crm/apperrors"
	"crm/repository"
	"crm/schemas"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var fixedNow = time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)

func newService(t *testing.T) (*Service, *time.Time) {
	t.Helper()
	clock := fixedNow
	repos := repository.NewMemorySet()
	svc := NewService(repos.Users, repos.Organizations, "test-secret", time.Hour,
		WithBcryptCost(bcrypt.MinCost),
		WithClock(func() time.Time { return clock }),
	)
	return svc, &clock
}

func register(t *testing.T, svc *Service, email string) *schemas.User {
	t.Helper()
	user, err := svc.Register(context.Background(), RegisterInput{
		FirstName: "Ann", LastName: "Smith", Email: email, Password: "secret1",
	})
	require.NoError(t, err)
	return user
}

func TestRegisterCreatesAdminAndOrganization(t *testing.T) {
	svc, _ := newService(t)
	user := register(t, svc, "Ann@Example.com")

	assert.Equal(t, schemas.ROLE_ADMIN, user.Role)
	assert.Equal(t, "ann@example.com", user.Email)
	assert.False(t, user.OrganizationID.IsZero())
	assert.NotEqual(t, "secret1", user.Password)

	org, err := svc.orgs.FindOne(context.Background(), repository.Filter{"_id": user.OrganizationID}, repository.IncludeDeleted)
	require.NoError(t, err)
	assert.Equal(t, "Ann Smith Organization", org.Name)
	assert.Equal(t, user.ID, org.Owner)

	_, err = svc.Register(context.Background(), RegisterInput{LastName: "X", Email: "ann@example.com", Password: "secret1"})
	assert.True(t, errors.Is(err, apperrors.ErrConflict))
}

func TestLoginAndAuthenticate(t *testing.T) {
	svc, _ := newService(t)
	user := register(t, svc, "ann@example.com")
	ctx := context.Background()

	token, logged, err := svc.Login(ctx, LoginInput{Email: "ann@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)

	actor, err := svc.Authenticate(token)
	require.NoError(t, err)
	assert.Equal(t, user.Actor(), actor)

	_, _, err = svc.Login(ctx, LoginInput{Email: "ann@example.com", Password: "wrong"})
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
	_, _, err = svc.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "secret1"})
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
}

func TestAuthenticateRejectsBadTokens(t *testing.T) {
	svc, clock := newService(t)
	user := register(t, svc, "ann@example.com")
	token, err := svc.IssueToken(user)
	require.NoError(t, err)

	_, err = svc.Authenticate(token + "x")
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))

	other := NewService(svc.users, svc.orgs, "other-secret", time.Hour, WithClock(svc.now))
	_, err = other.Authenticate(token)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{User: TokenUser{ID: user.ID.Hex()}})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.Authenticate(unsigned)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))

	*clock = clock.Add(2 * time.Hour)
	_, err = svc.Authenticate(token)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
}

func TestAdminManagesUsers(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	admin := register(t, svc, "admin@example.com").Actor()

	created, err := svc.CreateUser(ctx, admin, CreateUserInput{LastName: "Jones", Email: "bob@example.com", Password: "secret2"})
	require.NoError(t, err)
	assert.Equal(t, schemas.ROLE_USER, created.Role)
	assert.Equal(t, admin.OrganizationID, created.OrganizationID)

	_, err = svc.CreateUser(ctx, admin, CreateUserInput{LastName: "Jones", Email: "bob@example.com", Password: "secret2"})
	assert.True(t, errors.Is(err, apperrors.ErrConflict))

	_, err = svc.CreateUser(ctx, created.Actor(), CreateUserInput{LastName: "Eve", Email: "eve@example.com", Password: "secret3"})
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))
	_, err = svc.ListUsers(ctx, created.Actor())
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))

	register(t, svc, "stranger@example.com")
	users, err := svc.ListUsers(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}
