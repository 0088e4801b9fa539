package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"crm/apperrors"
	"crm/repository"
	"crm/schemas"
	"crm/settings"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestCreateLeadScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res := f.createLead(t, LeadInput{
		LastName:   str("Smith"),
		Email:      str("a@b.com"),
		LeadSource: str("referral"),
		Budget:     str("5000+"),
		Timeline:   str("immediate"),
	})

	require.NotNil(t, res.Contact)
	assert.Equal(t, "Smith", res.Contact.LastName)
	assert.Equal(t, "a@b.com", res.Contact.Email)
	require.NotNil(t, res.Contact.LeadID)
	assert.Equal(t, res.Lead.ID, *res.Contact.LeadID)
	assert.Equal(t, res.Contact.ID, res.Lead.ContactID)
	assert.Equal(t, 75, res.Lead.Score)
	assert.Equal(t, schemas.LEAD_STAGE_NEW, res.Lead.LeadStage)
	assert.Equal(t, f.user.UserID, res.Lead.CreatedBy)
	assert.Nil(t, res.Deal)

	rows, err := f.engine.LeadHistory(ctx, f.user, res.Lead.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, schemas.HISTORY_ACTION_CREATED, rows[0].Action)
	assert.Empty(t, rows[0].OldValues)
	assert.Equal(t, "Smith", rows[0].NewValues["last_name"])
	assert.Equal(t, "referral", rows[0].NewValues["lead_source"])
}

func TestCreateLeadValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.CreateLead(ctx, f.user, LeadInput{FirstName: str("Ann")})
	var verr *apperrors.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "is required", verr.Fields["last_name"])

	_, err = f.engine.CreateLead(ctx, f.user, LeadInput{LastName: str("Smith"), Email: str("not-an-email")})
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "email")

	_, err = f.engine.CreateLead(ctx, f.user, LeadInput{LastName: str("Smith"), LeadStage: str("Pending")})
	assert.True(t, errors.Is(err, apperrors.ErrValidation))

	n, err := f.repos.Contacts.Count(ctx, f.user.OrganizationID, repository.Filter{}, repository.IncludeDeleted)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCreateLeadFollowsSettingsPolicy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Contact method is optional by default.
	f.createLead(t, LeadInput{LastName: str("NoContact")})

	resolver := settings.NewResolver(f.repos.Settings)
	_, err := resolver.Update(ctx, f.admin, settings.UpdateInput{
		Settings: map[string]any{settings.KEY_REQUIRE_CONTACT_METHOD: true},
	})
	require.NoError(t, err)

	_, err = f.engine.CreateLead(ctx, f.user, LeadInput{LastName: str("Smith")})
	var verr *apperrors.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "email or phone is required", verr.Fields["email"])

	f.createLead(t, LeadInput{LastName: str("Smith"), Phone: str("555-0100")})

	fields := settings.Defaults().LeadFields
	fields[5].Required = true // company
	_, err = resolver.Update(ctx, f.admin, settings.UpdateInput{LeadFields: fields})
	require.NoError(t, err)

	_, err = f.engine.CreateLead(ctx, f.user, LeadInput{LastName: str("Smith"), Phone: str("555-0101")})
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "is required", verr.Fields["company"])
}

func TestDuplicateDetection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.createLead(t, LeadInput{LastName: str("Smith"), Email: str("dup@example.com")})
	f.createLead(t, LeadInput{LastName: str("NoEmail")})
	f.createLead(t, LeadInput{LastName: str("NoEmail2")})

	_, err := f.engine.CreateLead(ctx, f.user, LeadInput{LastName: str("Other"), Email: str("DUP@example.com")})
	assert.True(t, errors.Is(err, apperrors.ErrConflict))

	// Another organization may reuse the email.
	_, err = f.engine.CreateLead(ctx, f.otherOrg(), LeadInput{LastName: str("Other"), Email: str("dup@example.com")})
	assert.NoError(t, err)

	// A deleted lead frees its email.
	_, err = f.engine.DeleteLead(ctx, f.user, first.Lead.ID, DeleteInput{Reason: schemas.DELETION_REASON_DUPLICATE})
	require.NoError(t, err)
	_, err = f.engine.CreateLead(ctx, f.user, LeadInput{LastName: str("Again"), Email: str("dup@example.com")})
	assert.NoError(t, err)
}

func TestUpdateLeadToQualifiedCreatesOneDeal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.createLead(t, LeadInput{
		FirstName: str("Ann"), LastName: str("Smith"), Email: str("a@b.com"),
		LeadSource: str("referral"), Budget: str("5000+"), Timeline: str("immediate"),
	})
	id := res.Lead.ID
	f.tick()

	updated, err := f.engine.UpdateLead(ctx, f.user, id, LeadInput{LeadStage: str("Qualified")})
	require.NoError(t, err)
	require.NotNil(t, updated.Deal)
	deal := updated.Deal
	assert.Equal(t, schemas.DEAL_STAGE_QUALIFIED, deal.Stage)
	assert.WithinDuration(t, f.clock.AddDate(0, 0, 30), deal.CloseDate, time.Second)
	assert.Equal(t, f.user.UserID, deal.Owner)
	assert.Zero(t, deal.Amount)
	assert.Equal(t, schemas.DEFAULT_DEAL_PROBABILITY, deal.Probability)
	assert.Equal(t, res.Lead.ContactID, deal.ContactID)
	assert.Equal(t, "referral", deal.LeadSource)
	assert.Equal(t, "Ann", deal.FirstName)
	require.NotNil(t, deal.LeadID)
	assert.Equal(t, id, *deal.LeadID)

	f.tick()
	again, err := f.engine.UpdateLead(ctx, f.user, id, LeadInput{LeadStage: str("Qualified")})
	require.NoError(t, err)
	assert.Nil(t, again.Deal)

	// Leaving and re-entering Qualified does not create a second deal.
	_, err = f.engine.UpdateLead(ctx, f.user, id, LeadInput{LeadStage: str("Contacted")})
	require.NoError(t, err)
	f.tick()
	_, err = f.engine.UpdateLead(ctx, f.user, id, LeadInput{LeadStage: str("Qualified")})
	require.NoError(t, err)

	n, err := f.repos.Deals.Count(ctx, f.user.OrganizationID, repository.Filter{"lead_id": id}, repository.IncludeDeleted)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	rows, err := f.engine.LeadHistory(ctx, f.user, id)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, schemas.HISTORY_ACTION_STATUS_CHANGED, rows[0].Action)
	assert.Equal(t, schemas.HISTORY_ACTION_CREATED, rows[3].Action)
}

func TestDeletedDealStillBlocksAutoCreation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.createLead(t, LeadInput{LastName: str("Smith"), LeadStage: str("Qualified")})
	require.NotNil(t, res.Deal)

	_, err := f.engine.DeleteDeal(ctx, f.user, res.Deal.ID, DeleteInput{})
	require.NoError(t, err)
	_, err = f.engine.UpdateLead(ctx, f.user, res.Lead.ID, LeadInput{LeadStage: str("New")})
	require.NoError(t, err)
	again, err := f.engine.UpdateLead(ctx, f.user, res.Lead.ID, LeadInput{LeadStage: str("Qualified")})
	require.NoError(t, err)
	assert.Nil(t, again.Deal)
}

func TestAutoDealUsesDefaultStageProbability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stages := settings.NewStages(f.repos.DealStages, f.repos.Deals, nil)
	_, err := stages.Initialize(ctx, f.admin)
	require.NoError(t, err)

	res := f.createLead(t, LeadInput{LastName: str("Smith"), LeadStage: str("Qualified")})
	require.NotNil(t, res.Deal)
	assert.Equal(t, 25, res.Deal.Probability)
	assert.Equal(t, schemas.DEAL_TYPE_NEW_ACCOUNT, res.Deal.DealType)
}

type failingDeals struct {
	repository.Collection[schemas.Deal]
}

func (failingDeals) Insert(context.Context, *schemas.Deal) (bson.ObjectID, error) {
	return bson.NilObjectID, errors.New("store unavailable")
}

func TestAutoDealFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.repos.Deals = repository.New[schemas.Deal]("deal", failingDeals{repository.NewMemoryCollection[schemas.Deal]()})
	f.engine = New(Deps{Repos: f.repos, Logger: f.engine.log, Now: f.engine.now})

	res, err := f.engine.CreateLead(context.Background(), f.user, LeadInput{LastName: str("Smith"), LeadStage: str("Qualified")})
	require.NoError(t, err)
	assert.NotNil(t, res.Lead)
	assert.Nil(t, res.Deal)

	entry := f.logs.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, "deal", entry.Data["entity"])
	var depErr *apperrors.DependencyError
	assert.ErrorAs(t, entry.Data[logrus.ErrorKey].(error), &depErr)
}

func TestUpdateLeadIsOrganizationScoped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.createLead(t, LeadInput{LastName: str("Smith")})

	_, err := f.engine.UpdateLead(ctx, f.otherOrg(), res.Lead.ID, LeadInput{LastName: str("Jones")})
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	_, err = f.engine.GetLead(ctx, f.otherOrg(), res.Lead.ID)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	_, err = f.engine.UpdateLead(ctx, f.user, res.Lead.ID, LeadInput{LastName: str("")})
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

func TestUpdateWithoutTrackedChangesRecordsNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.createLead(t, LeadInput{LastName: str("Smith")})
	f.tick()

	updated, err := f.engine.UpdateLead(ctx, f.user, res.Lead.ID, LeadInput{Notes: str("called back"), Company: str("Acme")})
	require.NoError(t, err)
	assert.Equal(t, "called back", updated.Lead.Notes)
	assert.Equal(t, 3+10, updated.Lead.Score)

	_, err = f.engine.UpdateLead(ctx, f.user, res.Lead.ID, LeadInput{Notes: str("again")})
	require.NoError(t, err)

	rows, err := f.engine.LeadHistory(ctx, f.user, res.Lead.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, schemas.HISTORY_ACTION_UPDATED, rows[0].Action)
	assert.Equal(t, map[string]any{"company": "Acme"}, rows[0].NewValues)
}

func TestDeleteLeadRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	won := f.createLead(t, LeadInput{LastName: str("Won"), LeadStage: str("Won")})
	_, err := f.engine.DeleteLead(ctx, f.user, won.Lead.ID, DeleteInput{Reason: "spam"})
	var conflict *apperrors.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Contains(t, conflict.Blockers, "Lead is marked as Won")

	converted := f.createLead(t, LeadInput{LastName: str("Conv"), ConvertedDate: &fixedNow})
	info, err := f.engine.LeadDeleteInfo(ctx, f.user, converted.Lead.ID)
	require.NoError(t, err)
	assert.False(t, info.CanDelete)
	assert.Contains(t, info.Blockers, "Lead has already been converted")

	followUp := fixedNow.AddDate(0, 0, 3)
	hot := f.createLead(t, LeadInput{
		LastName: str("Hot"), LeadSource: str("referral"), Budget: str("5000+"),
		Timeline: str("immediate"), NextFollowUpDate: &followUp,
	})
	info, err = f.engine.LeadDeleteInfo(ctx, f.user, hot.Lead.ID)
	require.NoError(t, err)
	assert.True(t, info.CanDelete)
	assert.Len(t, info.Warnings, 4)

	_, err = f.engine.DeleteLead(ctx, f.user, hot.Lead.ID, DeleteInput{Reason: "nope"})
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

func TestDeleteAndRestoreLead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.createLead(t, LeadInput{LastName: str("Smith"), Email: str("a@b.com")})
	before, err := f.engine.GetLead(ctx, f.user, res.Lead.ID)
	require.NoError(t, err)

	f.tick()
	deleted, err := f.engine.DeleteLead(ctx, f.admin, res.Lead.ID, DeleteInput{Notes: "bad data", ContactAction: CONTACT_ACTION_KEEP})
	require.NoError(t, err)
	assert.True(t, deleted.Entity.IsDeleted)
	assert.Equal(t, schemas.DELETION_REASON_OTHER, *deleted.Entity.DeletionReason)
	assert.Equal(t, "bad data", *deleted.Entity.DeletionNotes)
	assert.True(t, deleted.Entity.Consistent())

	contact, err := f.engine.GetContact(ctx, f.user, res.Contact.ID)
	require.NoError(t, err)
	assert.Contains(t, contact.Notes, "contact action: keep")
	assert.False(t, contact.IsDeleted)

	leads, err := f.engine.ListLeads(ctx, f.user, ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, leads)
	leads, err = f.engine.ListLeads(ctx, f.user, ListOptions{DeletedOnly: true})
	require.NoError(t, err)
	assert.Len(t, leads, 1)

	_, err = f.engine.UpdateLead(ctx, f.user, res.Lead.ID, LeadInput{LastName: str("Jones")})
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	restored, err := f.engine.RestoreLead(ctx, f.admin, res.Lead.ID)
	require.NoError(t, err)
	assert.True(t, restored.Consistent())

	// Equal to the pre-delete lead apart from the modification stamps.
	restored.LastModifiedBy, before.LastModifiedBy = nil, nil
	restored.UpdatedAt, before.UpdatedAt = time.Time{}, time.Time{}
	assert.Equal(t, before, restored)

	rows, err := f.engine.LeadHistory(ctx, f.user, res.Lead.ID)
	require.NoError(t, err)
	var actions []string
	for _, r := range rows {
		actions = append(actions, r.Action)
	}
	assert.ElementsMatch(t, []string{"created", "deleted", "restored"}, actions)

	_, err = f.engine.RestoreLead(ctx, f.admin, res.Lead.ID)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestLeadEventsArePublished(t *testing.T) {
	f := newFixture(t)
	f.createLead(t, LeadInput{LastName: str("Smith"), LeadStage: str("Qualified")})

	require.Len(t, f.events.events, 2)
	assert.Equal(t, "deal", f.events.events[0].Entity)
	assert.Equal(t, schemas.EVENT_CREATED, f.events.events[1].Type)
	assert.Equal(t, "lead", f.events.events[1].Entity)
}
