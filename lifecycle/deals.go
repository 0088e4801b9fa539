package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"crm/apperrors"
	"crm/repository"
	"crm/schemas"
	"crm/validation"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type DealInput struct {
	FirstName       *string        `json:"first_name"`
	LastName        *string        `json:"last_name" validate:"omitnil,notblank"`
	Stage           *string        `json:"stage" validate:"omitnil,notblank"`
	DealType        *string        `json:"deal_type" validate:"omitempty,oneof=new-account account-setup upgrade renewal other"`
	CloseDate       *time.Time     `json:"close_date"`
	ActualCloseDate *time.Time     `json:"actual_close_date"`
	LeadSource      *string        `json:"lead_source" validate:"omitempty,oneof=website social-media referral email-campaign cold-call trade-show google-ads linkedin other"`
	Owner           *bson.ObjectID `json:"owner"`
	Amount          *float64       `json:"amount" validate:"omitnil,min=0"`
	RecurringAmount *float64       `json:"recurring_amount" validate:"omitnil,min=0"`
	Currency        *string        `json:"currency" validate:"omitempty,oneof=USD EUR GBP CAD AUD INR"`
	Product         *string        `json:"product"`
	Probability     *int           `json:"probability" validate:"omitnil,min=0,max=100"`
	Description     *string        `json:"description"`
	LeadID          *bson.ObjectID `json:"lead_id"`
	ContactID       *bson.ObjectID `json:"contact_id"`
}

func (in *DealInput) apply(d *schemas.Deal) bson.M {
	set := bson.M{}
	str := func(field string, src *string, dst *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
			set[field] = *dst
		}
	}
	str("first_name", in.FirstName, &d.FirstName)
	str("last_name", in.LastName, &d.LastName)
	str("stage", in.Stage, &d.Stage)
	str("deal_type", in.DealType, &d.DealType)
	str("lead_source", in.LeadSource, &d.LeadSource)
	str("currency", in.Currency, &d.Currency)
	str("product", in.Product, &d.Product)
	str("description", in.Description, &d.Description)
	if in.CloseDate != nil {
		d.CloseDate = *in.CloseDate
		set["close_date"] = d.CloseDate
	}
	if in.ActualCloseDate != nil {
		d.ActualCloseDate = in.ActualCloseDate
		set["actual_close_date"] = *in.ActualCloseDate
	}
	if in.Owner != nil {
		d.Owner = *in.Owner
		set["owner"] = d.Owner
	}
	if in.Amount != nil {
		d.Amount = *in.Amount
		set["amount"] = d.Amount
	}
	if in.RecurringAmount != nil {
		d.RecurringAmount = *in.RecurringAmount
		set["recurring_amount"] = d.RecurringAmount
	}
	if in.Probability != nil {
		d.Probability = *in.Probability
		set["probability"] = d.Probability
	}
	if in.LeadID != nil {
		id := *in.LeadID
		d.LeadID = &id
		set["lead_id"] = id
	}
	if in.ContactID != nil {
		d.ContactID = *in.ContactID
		set["contact_id"] = d.ContactID
	}
	return set
}

type DealResult struct {
	Deal    *schemas.Deal    `json:"deal"`
	Account *schemas.Account `json:"account,omitempty"`
}

// checkStage rejects a stage that is not in the organization's catalog.
func (e *Engine) checkStage(ctx context.Context, orgID bson.ObjectID, stage string) error {
	names, err := e.stages.Names(ctx, orgID)
	if err != nil {
		return fmt.Errorf("load deal stages: %w", err)
	}
	if !slices.Contains(names, stage) {
		return apperrors.Validation("stage", "must be one of: "+strings.Join(names, ", "))
	}
	return nil
}

// checkReferences verifies that linked records exist in the organization.
func (e *Engine) checkReferences(ctx context.Context, orgID bson.ObjectID, contactID bson.ObjectID, leadID *bson.ObjectID) error {
	if _, err := e.repos.Contacts.Get(ctx, orgID, contactID, repository.ExcludeDeleted); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.Validation("contact_id", "does not reference an existing contact")
		}
		return err
	}
	if leadID == nil {
		return nil
	}
	if _, err := e.repos.Leads.Get(ctx, orgID, *leadID, repository.IncludeDeleted); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.Validation("lead_id", "does not reference an existing lead")
		}
		return err
	}
	return nil
}

func (e *Engine) CreateDeal(ctx context.Context, actor schemas.Actor, in DealInput) (*DealResult, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	now := e.now()
	deal := &schemas.Deal{
		DealType:     schemas.DEAL_TYPE_NEW_ACCOUNT,
		LeadSource:   schemas.LEAD_SOURCE_OTHER,
		Owner:        actor.UserID,
		Currency:     schemas.DEFAULT_CURRENCY,
		Probability:  schemas.DEFAULT_DEAL_PROBABILITY,
		LastActivity: now,
	}
	in.apply(deal)

	verr := &apperrors.ValidationError{}
	if deal.LastName == "" {
		verr.Add("last_name", "is required")
	}
	if deal.Stage == "" {
		verr.Add("stage", "is required")
	}
	if deal.CloseDate.IsZero() {
		verr.Add("close_date", "is required")
	}
	if deal.ContactID.IsZero() {
		verr.Add("contact_id", "is required")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	if err := e.checkStage(ctx, actor.OrganizationID, deal.Stage); err != nil {
		return nil, err
	}
	if err := e.checkReferences(ctx, actor.OrganizationID, deal.ContactID, deal.LeadID); err != nil {
		return nil, err
	}

	if deal.IsClosed() && deal.ActualCloseDate == nil {
		deal.ActualCloseDate = &now
	}
	deal.ComputeExpectedRevenue()
	deal.Created(actor, now)

	saved, err := e.repos.Deals.Insert(ctx, actor.OrganizationID, deal)
	if err != nil {
		return nil, fmt.Errorf("create deal: %w", err)
	}
	e.publish(actor.OrganizationID, schemas.EVENT_CREATED, "deal", saved.ID, saved)
	return e.afterDealSave(ctx, actor, saved), nil
}

func (e *Engine) UpdateDeal(ctx context.Context, actor schemas.Actor, id bson.ObjectID, in DealInput) (*DealResult, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	current, err := e.repos.Deals.Get(ctx, actor.OrganizationID, id, repository.ExcludeDeleted)
	if err != nil {
		return nil, err
	}

	next := *current
	set := in.apply(&next)
	if in.Stage != nil && next.Stage != current.Stage {
		if err := e.checkStage(ctx, actor.OrganizationID, next.Stage); err != nil {
			return nil, err
		}
	}
	if in.ContactID != nil || in.LeadID != nil {
		if err := e.checkReferences(ctx, actor.OrganizationID, next.ContactID, in.LeadID); err != nil {
			return nil, err
		}
	}

	now := e.now()
	if next.IsClosed() && !current.IsClosed() && next.ActualCloseDate == nil {
		set["actual_close_date"] = now
	}
	next.ComputeExpectedRevenue()
	set["expected_revenue"] = next.ExpectedRevenue
	set["last_activity"] = now
	for k, v := range modified(actor, now) {
		set[k] = v
	}

	updated, err := e.repos.Deals.Update(ctx, actor.OrganizationID, id, set)
	if err != nil {
		return nil, err
	}
	e.publish(actor.OrganizationID, schemas.EVENT_UPDATED, "deal", id, updated)
	return e.afterDealSave(ctx, actor, updated), nil
}

// afterDealSave runs the won-deal cascade after every deal write.
func (e *Engine) afterDealSave(ctx context.Context, actor schemas.Actor, deal *schemas.Deal) *DealResult {
	result := &DealResult{Deal: deal}
	account, linked := e.accountFromDeal(ctx, actor, deal)
	if account != nil {
		result.Account = account
	}
	if linked != nil {
		result.Deal = linked
	}
	return result
}

func wantsAccount(d *schemas.Deal) bool {
	return d.Stage == schemas.DEAL_STAGE_CLOSED_WON &&
		d.DealType == schemas.DEAL_TYPE_ACCOUNT_SETUP &&
		d.AccountID == nil &&
		!d.IsDeleted
}

// accountFromDeal creates the account of a won account-setup deal and links
// it back to the deal. It returns the account and the relinked deal, or
// nils when nothing was created. Failures are logged.
func (e *Engine) accountFromDeal(ctx context.Context, actor schemas.Actor, deal *schemas.Deal) (*schemas.Account, *schemas.Deal) {
	if !wantsAccount(deal) {
		return nil, nil
	}
	logger := e.log.WithFields(logrus.Fields{
		"entity":          "account",
		"organization_id": actor.OrganizationID.Hex(),
		"deal_id":         deal.ID.Hex(),
	})

	// An account left unlinked by an earlier failed back-link is reused.
	account, err := e.repos.Accounts.FindOne(ctx, actor.OrganizationID, repository.Filter{"deal_id": deal.ID}, repository.IncludeDeleted)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		logger.WithError(&apperrors.DependencyError{Entity: "account", Err: err}).Error("auto-create account from won deal failed")
		return nil, nil
	}
	if account == nil {
		account, err = e.insertAccount(ctx, actor, e.accountDraft(ctx, actor, deal))
		if err != nil {
			logger.WithError(&apperrors.DependencyError{Entity: "account", Err: err}).Error("auto-create account from won deal failed")
			return nil, nil
		}
		e.publish(actor.OrganizationID, schemas.EVENT_CREATED, "account", account.ID, account)
	}

	set := modified(actor, e.now())
	set["account_id"] = account.ID
	linked, err := e.repos.Deals.Update(ctx, actor.OrganizationID, deal.ID, set)
	if err != nil {
		logger.WithError(err).Error("failed to link account to deal")
		return account, nil
	}
	return account, linked
}

func (e *Engine) accountDraft(ctx context.Context, actor schemas.Actor, deal *schemas.Deal) *schemas.Account {
	holder := deal.FullName()
	contactName := holder
	contact, err := e.repos.Contacts.Get(ctx, actor.OrganizationID, deal.ContactID, repository.IncludeDeleted)
	if err == nil && contact.FullName() != "" {
		contactName = contact.FullName()
	}

	name := contactName + " Account"
	if deal.Product != "" {
		name = deal.Product + " - " + contactName
	}
	serviceType := schemas.SERVICE_TYPE_BASIC
	if slices.Contains(schemas.ServiceTypes, strings.ToLower(deal.Product)) {
		serviceType = strings.ToLower(deal.Product)
	}
	price := deal.RecurringAmount
	if price == 0 {
		price = deal.Amount
	}
	start := e.now()
	if deal.ActualCloseDate != nil {
		start = *deal.ActualCloseDate
	}
	currency := deal.Currency
	if !slices.Contains(schemas.Currencies, currency) {
		currency = schemas.DEFAULT_CURRENCY
	}

	dealID := deal.ID
	account := &schemas.Account{
		AccountName:         name,
		ServiceType:         serviceType,
		Status:              schemas.ACCOUNT_STATUS_ACTIVE,
		AccountHolderName:   holder,
		Relationship:        schemas.RELATIONSHIP_SELF,
		CurrentMonthlyPrice: price,
		Currency:            currency,
		BillingCycle:        schemas.BILLING_CYCLE_MONTHLY,
		StartDate:           start,
		RenewalDate:         schemas.RenewalAfter(start, schemas.BILLING_CYCLE_MONTHLY),
		ContactID:           deal.ContactID,
		DealID:              &dealID,
	}
	if contact != nil {
		account.AccountHolderEmail = contact.Email
	}
	account.Created(actor, e.now())
	return account
}

func (e *Engine) GetDeal(ctx context.Context, actor schemas.Actor, id bson.ObjectID) (*schemas.Deal, error) {
	return e.repos.Deals.Get(ctx, actor.OrganizationID, id, repository.ExcludeDeleted)
}

func (e *Engine) ListDeals(ctx context.Context, actor schemas.Actor, opts ListOptions) ([]schemas.Deal, error) {
	return list(ctx, e.repos.Deals, actor, opts)
}

func (e *Engine) DeleteDeal(ctx context.Context, actor schemas.Actor, id bson.ObjectID, in DeleteInput) (*DeleteResult[schemas.Deal], error) {
	deleted, info, err := softDelete(ctx, e, e.repos.Deals, actor, id, in, e.dealCheck)
	if err != nil {
		return nil, err
	}
	return &DeleteResult[schemas.Deal]{Entity: deleted, Warnings: info.Warnings}, nil
}

// RestoreDeal restores a deal and re-runs the won-deal cascade.
func (e *Engine) RestoreDeal(ctx context.Context, actor schemas.Actor, id bson.ObjectID) (*DealResult, error) {
	restored, err := restore(ctx, e, e.repos.Deals, actor, id)
	if err != nil {
		return nil, err
	}
	return e.afterDealSave(ctx, actor, restored), nil
}

func (e *Engine) DealDeleteInfo(ctx context.Context, actor schemas.Actor, id bson.ObjectID) (DeleteInfo, error) {
	return deleteInfo(ctx, e.repos.Deals, actor, id, e.dealCheck)
}
