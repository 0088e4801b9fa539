package settings

import (
	"context"
	"errors"
	"testing"
	"time"

	"crm/apperrors"
	"crm/repository"
	"crm/schemas"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func actors() (admin, user schemas.Actor) {
	org := bson.NewObjectID()
	admin = schemas.Actor{UserID: bson.NewObjectID(), OrganizationID: org, Role: schemas.ROLE_ADMIN}
	user = schemas.Actor{UserID: bson.NewObjectID(), OrganizationID: org, Role: schemas.ROLE_USER}
	return admin, user
}

func newResolver(opts ...Option) (*Resolver, *repository.Set) {
	set := repository.NewMemorySet()
	return NewResolver(set.Settings, opts...), set
}

func TestGetCreatesDefaultsOnce(t *testing.T) {
	ctx := context.Background()
	r, set := newResolver()
	_, user := actors()

	first, err := r.Get(ctx, user)
	require.NoError(t, err)
	assert.Len(t, first.LeadFields, 7)
	assert.Len(t, first.LeadSources, 9)
	assert.Len(t, first.LeadStages, 6)
	assert.Equal(t, user.OrganizationID, first.OrganizationID)
	assert.True(t, first.Flag(KEY_DUPLICATE_DETECTION))

	second, err := r.Get(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	n, err := set.Settings.Count(ctx, user.OrganizationID, repository.Filter{}, repository.IncludeDeleted)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestPeekDoesNotPersist(t *testing.T) {
	ctx := context.Background()
	r, set := newResolver()
	_, user := actors()

	sources, err := r.ActiveSources(ctx, user.OrganizationID)
	require.NoError(t, err)
	assert.Len(t, sources, 9)

	n, err := set.Settings.Count(ctx, user.OrganizationID, repository.Filter{}, repository.IncludeDeleted)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestValidateFieldConfig(t *testing.T) {
	s := Defaults()
	assert.Empty(t, ValidateFieldConfig(&s))

	for i := range s.LeadFields {
		switch s.LeadFields[i].Name {
		case "lastName", "email", "phone":
			s.LeadFields[i].Active = false
		}
	}
	assert.Equal(t, []string{
		"Last Name field must be active",
		"At least Email or Phone field must be active for contact purposes",
	}, ValidateFieldConfig(&s))
}

func TestUpdateRequiresAdmin(t *testing.T) {
	r, _ := newResolver()
	_, user := actors()

	_, err := r.Update(context.Background(), user, UpdateInput{})
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))
}

func TestUpdateMergesAndSortsStages(t *testing.T) {
	ctx := context.Background()
	r, _ := newResolver()
	admin, _ := actors()

	updated, err := r.Update(ctx, admin, UpdateInput{
		LeadStages: []schemas.LeadStageOption{
			{ID: 1, Value: "Late", Label: "Late", Active: true, Order: 10},
			{ID: 2, Value: "First", Label: "First", Active: true},
			{ID: 3, Value: "Tie", Label: "Tie", Active: true, Order: 10},
		},
		Settings: map[string]any{KEY_REQUIRE_CONTACT_METHOD: true},
	})
	require.NoError(t, err)

	var values []string
	for _, st := range updated.LeadStages {
		values = append(values, st.Value)
	}
	assert.Equal(t, []string{"First", "Late", "Tie"}, values)
	assert.True(t, updated.Flag(KEY_REQUIRE_CONTACT_METHOD))
	assert.True(t, updated.Flag(KEY_DUPLICATE_DETECTION))
	require.NotNil(t, updated.LastModifiedBy)
	assert.Equal(t, admin.UserID, *updated.LastModifiedBy)

	policy, err := r.LeadPolicy(ctx, admin.OrganizationID)
	require.NoError(t, err)
	assert.True(t, policy.RequireContactMethod)
	assert.Equal(t, []string{"last_name"}, policy.Required)
}

func TestUpdateRejectsInvalidFieldConfig(t *testing.T) {
	admin, _ := actors()
	r, _ := newResolver()

	fields := Defaults().LeadFields
	fields[1].Active = false
	_, err := r.Update(context.Background(), admin, UpdateInput{LeadFields: fields})

	var verr *apperrors.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields["lead_fields"], "Last Name field must be active")
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	admin, _ := actors()
	r, _ := newResolver()

	_, err := r.Update(ctx, admin, UpdateInput{LeadSources: []schemas.LeadSourceOption{{ID: 1, Value: "website", Label: "Web", Active: true}}})
	require.NoError(t, err)

	reset, err := r.Reset(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, reset.LeadSources, 9)
}

func TestCacheIsInvalidatedOnUpdate(t *testing.T) {
	ctx := context.Background()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	defer client.Close()

	admin, _ := actors()
	r, _ := newResolver(WithCache(NewCache(client, time.Minute)), WithClock(func() time.Time {
		return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	}))

	_, err := r.Get(ctx, admin)
	require.NoError(t, err)
	assert.True(t, srv.Exists(cacheKey(admin.OrganizationID)))

	_, err = r.Update(ctx, admin, UpdateInput{Settings: map[string]any{KEY_DUPLICATE_DETECTION: false}})
	require.NoError(t, err)
	assert.False(t, srv.Exists(cacheKey(admin.OrganizationID)))

	policy, err := r.LeadPolicy(ctx, admin.OrganizationID)
	require.NoError(t, err)
	assert.False(t, policy.DuplicateDetection)
	assert.True(t, srv.Exists(cacheKey(admin.OrganizationID)))
}

// readDuringReplace runs onReplace before delegating, standing in for a read
// that lands while the replace is in flight.
type readDuringReplace struct {
	repository.Collection[schemas.CRMSettings]
	onReplace func()
}

func (c *readDuringReplace) Replace(ctx context.Context, id bson.ObjectID, doc *schemas.CRMSettings) error {
	if c.onReplace != nil {
		c.onReplace()
	}
	return c.Collection.Replace(ctx, id, doc)
}

func TestConcurrentReadDoesNotRecacheOldSettings(t *testing.T) {
	ctx := context.Background()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	defer client.Close()

	admin, _ := actors()
	coll := &readDuringReplace{Collection: repository.NewMemoryCollection[schemas.CRMSettings]()}
	r := NewResolver(repository.New[schemas.CRMSettings]("crm settings", coll), WithCache(NewCache(client, time.Minute)))

	_, err := r.Get(ctx, admin)
	require.NoError(t, err)

	coll.onReplace = func() {
		_, err := r.Peek(ctx, admin.OrganizationID)
		assert.NoError(t, err)
	}
	_, err = r.Update(ctx, admin, UpdateInput{Settings: map[string]any{KEY_DUPLICATE_DETECTION: false}})
	require.NoError(t, err)
	coll.onReplace = nil

	policy, err := r.LeadPolicy(ctx, admin.OrganizationID)
	require.NoError(t, err)
	assert.False(t, policy.DuplicateDetection)
}
