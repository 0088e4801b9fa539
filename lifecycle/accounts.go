package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"crm/apperrors"
	"crm/repository"
	"crm/schemas"
	"crm/validation"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type AccountInput struct {
	AccountName         *string        `json:"account_name" validate:"omitnil,notblank"`
	ServiceType         *string        `json:"service_type" validate:"omitnil,oneof=basic premium enterprise family student"`
	Status              *string        `json:"status" validate:"omitnil,oneof=active inactive suspended cancelled expired pending"`
	AccountHolderName   *string        `json:"account_holder_name" validate:"omitnil,notblank"`
	AccountHolderEmail  *string        `json:"account_holder_email" validate:"omitempty,email"`
	Relationship        *string        `json:"relationship" validate:"omitnil,oneof=self spouse child parent sibling friend employee other"`
	CurrentMonthlyPrice *float64       `json:"current_monthly_price" validate:"omitnil,min=0"`
	Currency            *string        `json:"currency" validate:"omitnil,oneof=USD EUR GBP CAD AUD INR"`
	BillingCycle        *string        `json:"billing_cycle" validate:"omitnil,oneof=monthly quarterly yearly"`
	StartDate           *time.Time     `json:"start_date"`
	RenewalDate         *time.Time     `json:"renewal_date"`
	LastPaymentDate     *time.Time     `json:"last_payment_date"`
	TotalRevenue        *float64       `json:"total_revenue" validate:"omitnil,min=0"`
	ContactID           *bson.ObjectID `json:"contact_id"`
	DealID              *bson.ObjectID `json:"deal_id"`
	Notes               *string        `json:"notes"`
}

func (in *AccountInput) apply(a *schemas.Account) bson.M {
	set := bson.M{}
	str := func(field string, src *string, dst *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
			set[field] = *dst
		}
	}
	str("account_name", in.AccountName, &a.AccountName)
	str("service_type", in.ServiceType, &a.ServiceType)
	str("status", in.Status, &a.Status)
	str("account_holder_name", in.AccountHolderName, &a.AccountHolderName)
	str("account_holder_email", in.AccountHolderEmail, &a.AccountHolderEmail)
	str("relationship", in.Relationship, &a.Relationship)
	str("currency", in.Currency, &a.Currency)
	str("billing_cycle", in.BillingCycle, &a.BillingCycle)
	str("notes", in.Notes, &a.Notes)
	if in.CurrentMonthlyPrice != nil {
		a.CurrentMonthlyPrice = *in.CurrentMonthlyPrice
		set["current_monthly_price"] = a.CurrentMonthlyPrice
	}
	if in.TotalRevenue != nil {
		a.TotalRevenue = *in.TotalRevenue
		set["total_revenue"] = a.TotalRevenue
	}
	if in.StartDate != nil {
		a.StartDate = *in.StartDate
		set["start_date"] = a.StartDate
	}
	if in.RenewalDate != nil {
		a.RenewalDate = *in.RenewalDate
		set["renewal_date"] = a.RenewalDate
	}
	if in.LastPaymentDate != nil {
		a.LastPaymentDate = in.LastPaymentDate
		set["last_payment_date"] = *in.LastPaymentDate
	}
	if in.ContactID != nil {
		a.ContactID = *in.ContactID
		set["contact_id"] = a.ContactID
	}
	if in.DealID != nil {
		id := *in.DealID
		a.DealID = &id
		set["deal_id"] = id
	}
	return set
}

func (e *Engine) CreateAccount(ctx context.Context, actor schemas.Actor, in AccountInput) (*schemas.Account, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	now := e.now()
	account := &schemas.Account{
		Status:       schemas.ACCOUNT_STATUS_PENDING,
		Relationship: schemas.RELATIONSHIP_SELF,
		Currency:     schemas.DEFAULT_CURRENCY,
		BillingCycle: schemas.BILLING_CYCLE_MONTHLY,
		StartDate:    now,
	}
	in.apply(account)

	verr := &apperrors.ValidationError{}
	if account.AccountName == "" {
		verr.Add("account_name", "is required")
	}
	if account.ServiceType == "" {
		verr.Add("service_type", "is required")
	}
	if account.AccountHolderName == "" {
		verr.Add("account_holder_name", "is required")
	}
	if in.CurrentMonthlyPrice == nil {
		verr.Add("current_monthly_price", "is required")
	}
	if account.ContactID.IsZero() {
		verr.Add("contact_id", "is required")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	if err := e.checkReferences(ctx, actor.OrganizationID, account.ContactID, nil); err != nil {
		return nil, err
	}

	if account.RenewalDate.IsZero() {
		account.RenewalDate = schemas.RenewalAfter(account.StartDate, account.BillingCycle)
	}
	account.Created(actor, now)

	saved, err := e.insertAccount(ctx, actor, account)
	if err != nil {
		return nil, err
	}
	e.publish(actor.OrganizationID, schemas.EVENT_CREATED, "account", saved.ID, saved)
	return saved, nil
}

// insertAccount numbers the account and stores it.
func (e *Engine) insertAccount(ctx context.Context, actor schemas.Actor, account *schemas.Account) (*schemas.Account, error) {
	seq, err := e.seq.Next(ctx, actor.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("next account number: %w", err)
	}
	account.AccountNumber = AccountNumber(actor.OrganizationID, seq)

	saved, err := e.repos.Accounts.Insert(ctx, actor.OrganizationID, account)
	if errors.Is(err, repository.ErrDuplicateKey) {
		return nil, apperrors.Conflict(fmt.Sprintf("account number %s is already taken", account.AccountNumber))
	}
	if err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	return saved, nil
}

func (e *Engine) UpdateAccount(ctx context.Context, actor schemas.Actor, id bson.ObjectID, in AccountInput) (*schemas.Account, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	current, err := e.repos.Accounts.Get(ctx, actor.OrganizationID, id, repository.ExcludeDeleted)
	if err != nil {
		return nil, err
	}
	next := *current
	set := in.apply(&next)
	if in.ContactID != nil {
		if err := e.checkReferences(ctx, actor.OrganizationID, next.ContactID, nil); err != nil {
			return nil, err
		}
	}
	for k, v := range modified(actor, e.now()) {
		set[k] = v
	}

	updated, err := e.repos.Accounts.Update(ctx, actor.OrganizationID, id, set)
	if err != nil {
		return nil, err
	}
	e.publish(actor.OrganizationID, schemas.EVENT_UPDATED, "account", id, updated)
	return updated, nil
}

func (e *Engine) GetAccount(ctx context.Context, actor schemas.Actor, id bson.ObjectID) (*schemas.Account, error) {
	return e.repos.Accounts.Get(ctx, actor.OrganizationID, id, repository.ExcludeDeleted)
}

func (e *Engine) ListAccounts(ctx context.Context, actor schemas.Actor, opts ListOptions) ([]schemas.Account, error) {
	opts.LeadID = nil
	return list(ctx, e.repos.Accounts, actor, opts)
}

func (e *Engine) DeleteAccount(ctx context.Context, actor schemas.Actor, id bson.ObjectID, in DeleteInput) (*DeleteResult[schemas.Account], error) {
	deleted, info, err := softDelete(ctx, e, e.repos.Accounts, actor, id, in, e.accountCheck)
	if err != nil {
		return nil, err
	}
	return &DeleteResult[schemas.Account]{Entity: deleted, Warnings: info.Warnings}, nil
}

func (e *Engine) RestoreAccount(ctx context.Context, actor schemas.Actor, id bson.ObjectID) (*schemas.Account, error) {
	return restore(ctx, e, e.repos.Accounts, actor, id)
}

func (e *Engine) AccountDeleteInfo(ctx context.Context, actor schemas.Actor, id bson.ObjectID) (DeleteInfo, error) {
	return deleteInfo(ctx, e.repos.Accounts, actor, id, e.accountCheck)
}
