package lifecycle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"crm/apperrors"
	"crm/repository"
	"crm/schemas"
	"crm/settings"
	"crm/validation"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// LeadInput carries the caller-supplied lead fields. Nil fields are left
// untouched on update.
type LeadInput struct {
	FirstName        *string    `json:"first_name"`
	LastName         *string    `json:"last_name" validate:"omitnil,notblank"`
	Email            *string    `json:"email" validate:"omitempty,email"`
	Phone            *string    `json:"phone"`
	Company          *string    `json:"company"`
	JobTitle         *string    `json:"job_title"`
	LeadSource       *string    `json:"lead_source" validate:"omitempty,oneof=website social-media referral email-campaign cold-call trade-show google-ads linkedin other"`
	LeadStage        *string    `json:"lead_stage" validate:"omitempty,oneof=New Contacted Qualified Lost Won"`
	Budget           *string    `json:"budget" validate:"omitempty,oneof=5000+ 1000-5000 500-1000 100-500 under-100 not-specified"`
	Timeline         *string    `json:"timeline" validate:"omitempty,oneof=immediate 1-month 1-3-months 3-6-months 6-12-months not-specified"`
	ProductInterest  *string    `json:"product_interest"`
	InquiryType      *string    `json:"inquiry_type"`
	Notes            *string    `json:"notes"`
	NextFollowUpDate *time.Time `json:"next_follow_up_date"`
	ConvertedDate    *time.Time `json:"converted_date"`

	// OldID is the legacy CRM id of an imported lead.
	OldID string `json:"-"`
}

// apply copies the provided fields onto lead and returns them keyed by
// document field.
func (in *LeadInput) apply(lead *schemas.Lead) bson.M {
	set := bson.M{}
	str := func(field string, src *string, dst *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
			set[field] = *dst
		}
	}
	str("first_name", in.FirstName, &lead.FirstName)
	str("last_name", in.LastName, &lead.LastName)
	str("email", in.Email, &lead.Email)
	str("phone", in.Phone, &lead.Phone)
	str("company", in.Company, &lead.Company)
	str("job_title", in.JobTitle, &lead.JobTitle)
	str("lead_source", in.LeadSource, &lead.LeadSource)
	str("lead_stage", in.LeadStage, &lead.LeadStage)
	str("budget", in.Budget, &lead.Budget)
	str("timeline", in.Timeline, &lead.Timeline)
	str("product_interest", in.ProductInterest, &lead.ProductInterest)
	str("inquiry_type", in.InquiryType, &lead.InquiryType)
	str("notes", in.Notes, &lead.Notes)
	if in.Email != nil {
		lead.Email = strings.ToLower(lead.Email)
		set["email"] = lead.Email
	}
	if in.NextFollowUpDate != nil {
		lead.NextFollowUpDate = in.NextFollowUpDate
		set["next_follow_up_date"] = *in.NextFollowUpDate
	}
	if in.ConvertedDate != nil {
		lead.ConvertedDate = in.ConvertedDate
		set["converted_date"] = *in.ConvertedDate
	}
	return set
}

type LeadResult struct {
	Lead    *schemas.Lead    `json:"lead"`
	Contact *schemas.Contact `json:"contact,omitempty"`
	Deal    *schemas.Deal    `json:"deal,omitempty"`
}

// checkPolicy enforces the organization's required lead fields.
func checkPolicy(policy settings.LeadPolicy, lead *schemas.Lead) error {
	values := map[string]string{
		"first_name":  lead.FirstName,
		"last_name":   lead.LastName,
		"email":       lead.Email,
		"phone":       lead.Phone,
		"lead_source": lead.LeadSource,
		"company":     lead.Company,
		"job_title":   lead.JobTitle,
	}
	verr := &apperrors.ValidationError{}
	if lead.LastName == "" {
		verr.Add("last_name", "is required")
	}
	for _, field := range policy.Required {
		if values[field] == "" {
			verr.Add(field, "is required")
		}
	}
	if policy.RequireContactMethod && lead.Email == "" && lead.Phone == "" {
		verr.Add("email", "email or phone is required")
	}
	return verr.OrNil()
}

func (e *Engine) checkDuplicate(ctx context.Context, orgID bson.ObjectID, policy settings.LeadPolicy, email string, self *bson.ObjectID) error {
	if !policy.DuplicateDetection || email == "" {
		return nil
	}
	leads, err := e.repos.Leads.Find(ctx, orgID, repository.Filter{"email": email}, repository.FindOptions{Limit: 2})
	if err != nil {
		return err
	}
	for _, l := range leads {
		if self == nil || l.ID != *self {
			return apperrors.Conflict(fmt.Sprintf("A lead with email %s already exists", email))
		}
	}
	return nil
}

// CreateLead creates the contact, then the lead referencing it. A lead
// created as Qualified also gets a deal.
func (e *Engine) CreateLead(ctx context.Context, actor schemas.Actor, in LeadInput) (*LeadResult, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	lead := &schemas.Lead{
		LeadSource: schemas.LEAD_SOURCE_OTHER,
		LeadStage:  schemas.LEAD_STAGE_NEW,
		Budget:     schemas.BUDGET_NOT_SPECIFIED,
		Timeline:   schemas.TIMELINE_NOT_SPECIFIED,
		OldID:      in.OldID,
	}
	provided := in.apply(lead)

	policy, err := e.settings.LeadPolicy(ctx, actor.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("load lead policy: %w", err)
	}
	if err := checkPolicy(policy, lead); err != nil {
		return nil, err
	}
	if err := e.checkDuplicate(ctx, actor.OrganizationID, policy, lead.Email, nil); err != nil {
		return nil, err
	}

	now := e.now()
	contact := &schemas.Contact{
		FirstName: lead.FirstName,
		LastName:  lead.LastName,
		Email:     lead.Email,
		Phone:     lead.Phone,
		Company:   lead.Company,
		JobTitle:  lead.JobTitle,
	}
	contact.Created(actor, now)
	contact, err = e.repos.Contacts.Insert(ctx, actor.OrganizationID, contact)
	if err != nil {
		return nil, fmt.Errorf("create contact for lead: %w", err)
	}

	lead.ContactID = contact.ID
	lead.Score = Score(lead)
	lead.Created(actor, now)
	lead, err = e.repos.Leads.Insert(ctx, actor.OrganizationID, lead)
	if err != nil {
		return nil, fmt.Errorf("create lead: %w", err)
	}

	linked, err := e.repos.Contacts.Update(ctx, actor.OrganizationID, contact.ID, bson.M{"lead_id": lead.ID})
	if err != nil {
		e.log.WithError(err).WithFields(logrus.Fields{
			"organization_id": actor.OrganizationID.Hex(),
			"lead_id":         lead.ID.Hex(),
		}).Warn("failed to link contact to lead")
	} else {
		contact = linked
	}

	if _, err := e.history.Created(ctx, actor, lead, provided); err != nil {
		e.log.WithError(err).WithField("lead_id", lead.ID.Hex()).Warn("failed to record lead history")
	}

	result := &LeadResult{Lead: lead, Contact: contact}
	if lead.LeadStage == schemas.LEAD_STAGE_QUALIFIED {
		result.Deal = e.dealFromLead(ctx, actor, lead)
	}

	e.publish(actor.OrganizationID, schemas.EVENT_CREATED, "lead", lead.ID, result)
	return result, nil
}

// UpdateLead applies a partial update, records the diff and creates the
// lead's deal when it first becomes Qualified.
func (e *Engine) UpdateLead(ctx context.Context, actor schemas.Actor, id bson.ObjectID, in LeadInput) (*LeadResult, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	current, err := e.repos.Leads.Get(ctx, actor.OrganizationID, id, repository.ExcludeDeleted)
	if err != nil {
		return nil, err
	}

	next := *current
	set := in.apply(&next)

	policy, err := e.settings.LeadPolicy(ctx, actor.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("load lead policy: %w", err)
	}
	if err := checkPolicy(policy, &next); err != nil {
		return nil, err
	}
	if in.Email != nil && next.Email != current.Email {
		if err := e.checkDuplicate(ctx, actor.OrganizationID, policy, next.Email, &id); err != nil {
			return nil, err
		}
	}

	if !next.IsDeleted {
		set["score"] = Score(&next)
	}
	for k, v := range modified(actor, e.now()) {
		set[k] = v
	}

	updated, err := e.repos.Leads.Update(ctx, actor.OrganizationID, id, set)
	if err != nil {
		return nil, err
	}

	if _, err := e.history.Updated(ctx, actor, current, updated); err != nil {
		e.log.WithError(err).WithField("lead_id", id.Hex()).Warn("failed to record lead history")
	}

	result := &LeadResult{Lead: updated}
	if current.LeadStage != schemas.LEAD_STAGE_QUALIFIED && updated.LeadStage == schemas.LEAD_STAGE_QUALIFIED {
		existing, err := e.repos.Deals.Count(ctx, actor.OrganizationID, repository.Filter{"lead_id": id}, repository.IncludeDeleted)
		switch {
		case err != nil:
			e.log.WithError(err).WithField("lead_id", id.Hex()).Error("failed to check existing deals for lead")
		case existing == 0:
			result.Deal = e.dealFromLead(ctx, actor, updated)
		}
	}

	e.publish(actor.OrganizationID, schemas.EVENT_UPDATED, "lead", id, result)
	return result, nil
}

// dealFromLead creates the deal of a qualified lead. Failures are logged
// and reported as a nil deal.
func (e *Engine) dealFromLead(ctx context.Context, actor schemas.Actor, lead *schemas.Lead) *schemas.Deal {
	probability := schemas.DEFAULT_DEAL_PROBABILITY
	if p, ok, err := e.stages.DefaultProbability(ctx, actor.OrganizationID); err != nil {
		e.log.WithError(err).WithField("organization_id", actor.OrganizationID.Hex()).Warn("failed to read default deal stage")
	} else if ok {
		probability = p
	}

	now := e.now()
	leadID := lead.ID
	deal := &schemas.Deal{
		FirstName:    lead.FirstName,
		LastName:     lead.LastName,
		Stage:        schemas.DEAL_STAGE_QUALIFIED,
		DealType:     schemas.DEAL_TYPE_NEW_ACCOUNT,
		CloseDate:    now.AddDate(0, 0, 30),
		LeadSource:   lead.LeadSource,
		Owner:        actor.UserID,
		Currency:     schemas.DEFAULT_CURRENCY,
		Probability:  probability,
		LeadID:       &leadID,
		ContactID:    lead.ContactID,
		LastActivity: now,
	}
	deal.ComputeExpectedRevenue()
	deal.Created(actor, now)

	saved, err := e.repos.Deals.Insert(ctx, actor.OrganizationID, deal)
	if err != nil {
		e.log.WithError(&apperrors.DependencyError{Entity: "deal", Err: err}).WithFields(logrus.Fields{
			"entity":          "deal",
			"organization_id": actor.OrganizationID.Hex(),
			"lead_id":         lead.ID.Hex(),
		}).Error("auto-create deal from qualified lead failed")
		return nil
	}
	e.publish(actor.OrganizationID, schemas.EVENT_CREATED, "deal", saved.ID, saved)
	return saved
}

func (e *Engine) GetLead(ctx context.Context, actor schemas.Actor, id bson.ObjectID) (*schemas.Lead, error) {
	return e.repos.Leads.Get(ctx, actor.OrganizationID, id, repository.ExcludeDeleted)
}

func (e *Engine) ListLeads(ctx context.Context, actor schemas.Actor, opts ListOptions) ([]schemas.Lead, error) {
	return list(ctx, e.repos.Leads, actor, opts)
}

// DeleteLead soft-deletes a lead. The contact action only annotates the
// linked contact's notes.
func (e *Engine) DeleteLead(ctx context.Context, actor schemas.Actor, id bson.ObjectID, in DeleteInput) (*DeleteResult[schemas.Lead], error) {
	deleted, info, err := softDelete(ctx, e, e.repos.Leads, actor, id, in, e.leadCheck)
	if err != nil {
		return nil, err
	}

	if _, err := e.history.Deleted(ctx, actor, deleted); err != nil {
		e.log.WithError(err).WithField("lead_id", id.Hex()).Warn("failed to record lead history")
	}
	if in.ContactAction != "" && in.ContactAction != CONTACT_ACTION_NONE {
		e.annotateContact(ctx, actor, deleted, in)
	}
	return &DeleteResult[schemas.Lead]{Entity: deleted, Warnings: info.Warnings}, nil
}

func (e *Engine) annotateContact(ctx context.Context, actor schemas.Actor, lead *schemas.Lead, in DeleteInput) {
	contact, err := e.repos.Contacts.Get(ctx, actor.OrganizationID, lead.ContactID, repository.IncludeDeleted)
	if err != nil {
		e.log.WithError(err).WithField("lead_id", lead.ID.Hex()).Warn("failed to load contact of deleted lead")
		return
	}
	line := fmt.Sprintf("[%s] Lead %s deleted (reason: %s), contact action: %s",
		e.now().Format(time.DateOnly), lead.ID.Hex(), in.reason(), in.ContactAction)
	notes := line
	if contact.Notes != "" {
		notes = contact.Notes + "\n" + line
	}
	set := modified(actor, e.now())
	set["notes"] = notes
	if _, err := e.repos.Contacts.UpdateWhere(ctx, actor.OrganizationID, repository.Filter{"_id": contact.ID}, repository.IncludeDeleted, set); err != nil {
		e.log.WithError(err).WithField("contact_id", contact.ID.Hex()).Warn("failed to annotate contact")
	}
}

func (e *Engine) RestoreLead(ctx context.Context, actor schemas.Actor, id bson.ObjectID) (*schemas.Lead, error) {
	restored, err := restore(ctx, e, e.repos.Leads, actor, id)
	if err != nil {
		return nil, err
	}
	if _, err := e.history.Restored(ctx, actor, restored); err != nil {
		e.log.WithError(err).WithField("lead_id", id.Hex()).Warn("failed to record lead history")
	}
	return restored, nil
}

func (e *Engine) LeadDeleteInfo(ctx context.Context, actor schemas.Actor, id bson.ObjectID) (DeleteInfo, error) {
	return deleteInfo(ctx, e.repos.Leads, actor, id, e.leadCheck)
}

func (e *Engine) LeadHistory(ctx context.Context, actor schemas.Actor, leadID bson.ObjectID) ([]schemas.LeadHistory, error) {
	return e.history.List(ctx, actor.OrganizationID, leadID)
}
