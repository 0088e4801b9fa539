package lifecycle

import (
	"context"
	"fmt"
	"time"

	"crm/apperrors"
	"crm/repository"
	"crm/schemas"
	"crm/validation"

	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	CONTACT_ACTION_DELETE  = "delete"
	CONTACT_ACTION_KEEP    = "keep"
	CONTACT_ACTION_CONVERT = "convert"
	CONTACT_ACTION_NONE    = "none"
)

type DeleteInput struct {
	Reason        string `json:"reason" validate:"omitempty,oneof=duplicate invalid-data customer-request spam test-data no-longer-relevant converted other"`
	Notes         string `json:"notes"`
	ContactAction string `json:"contact_action" validate:"omitempty,oneof=delete keep convert none"`
}

func (in DeleteInput) reason() string {
	if in.Reason == "" {
		return schemas.DELETION_REASON_OTHER
	}
	return in.Reason
}

// DeleteInfo previews whether an entity may be soft-deleted.
type DeleteInfo struct {
	CanDelete    bool     `json:"can_delete"`
	Warnings     []string `json:"warnings"`
	Blockers     []string `json:"blockers"`
	RelatedLeads int64    `json:"related_leads,omitempty"`
	RelatedDeals int64    `json:"related_deals,omitempty"`
}

func newDeleteInfo() DeleteInfo {
	return DeleteInfo{Warnings: []string{}, Blockers: []string{}}
}

func (d *DeleteInfo) warn(format string, args ...any)  { d.Warnings = append(d.Warnings, fmt.Sprintf(format, args...)) }
func (d *DeleteInfo) block(format string, args ...any) { d.Blockers = append(d.Blockers, fmt.Sprintf(format, args...)) }

func (d *DeleteInfo) done() DeleteInfo {
	d.CanDelete = len(d.Blockers) == 0
	return *d
}

// DeleteResult is a soft-deleted entity with the warnings raised by its checks.
type DeleteResult[T any] struct {
	Entity   *T       `json:"entity"`
	Warnings []string `json:"warnings"`
}

func leadRules(l *schemas.Lead, now time.Time) DeleteInfo {
	info := newDeleteInfo()
	if l.ConvertedDate != nil {
		info.block("Lead has already been converted")
	}
	if l.LeadStage == schemas.LEAD_STAGE_WON {
		info.block("Lead is marked as Won")
	}
	if l.LeadStage == schemas.LEAD_STAGE_QUALIFIED {
		info.warn("Lead is qualified and may have an active deal")
	}
	if l.Score > 70 {
		info.warn("Lead has a high score (%d)", l.Score)
	}
	if l.NextFollowUpDate != nil && l.NextFollowUpDate.After(now) {
		info.warn("Lead has a follow-up scheduled on %s", l.NextFollowUpDate.Format(time.DateOnly))
	}
	if l.Budget == "5000+" || l.Budget == "1000-5000" {
		info.warn("Lead has a high budget (%s)", l.Budget)
	}
	if l.Timeline == "immediate" {
		info.warn("Lead has an immediate timeline")
	}
	return info.done()
}

func dealRules(d *schemas.Deal, now time.Time) DeleteInfo {
	info := newDeleteInfo()
	if d.Stage == schemas.DEAL_STAGE_CLOSED_WON {
		info.block("Deal is Closed Won")
	}
	if d.AccountID != nil {
		info.block("Deal is linked to account %s", d.AccountID.Hex())
	}
	if d.Stage == schemas.DEAL_STAGE_PROPOSAL || d.Stage == schemas.DEAL_STAGE_NEGOTIATION {
		info.warn("Deal is in an advanced stage (%s)", d.Stage)
	}
	if d.Amount > 10000 {
		info.warn("Deal has a high amount (%.2f)", d.Amount)
	}
	if !d.CloseDate.IsZero() && !d.CloseDate.Before(now) && d.CloseDate.Before(now.AddDate(0, 0, 7)) {
		info.warn("Deal closes within 7 days")
	}
	return info.done()
}

func accountRules(a *schemas.Account, now time.Time) DeleteInfo {
	info := newDeleteInfo()
	if a.Status == schemas.ACCOUNT_STATUS_ACTIVE {
		info.block("Account is active")
	}
	if a.LastPaymentDate != nil && a.LastPaymentDate.After(now.AddDate(0, 0, -30)) {
		info.warn("Account received a payment in the last 30 days")
	}
	if a.TotalRevenue > 5000 {
		info.warn("Account has high total revenue (%.2f)", a.TotalRevenue)
	}
	if a.RenewalDate.After(now) {
		info.warn("Account has an upcoming renewal on %s", a.RenewalDate.Format(time.DateOnly))
	}
	return info.done()
}

func (e *Engine) contactDeleteInfo(ctx context.Context, c *schemas.Contact) (DeleteInfo, error) {
	info := newDeleteInfo()
	related := repository.Filter{"contact_id": c.ID}
	leads, err := e.repos.Leads.Count(ctx, c.OrganizationID, related, repository.ExcludeDeleted)
	if err != nil {
		return info, err
	}
	deals, err := e.repos.Deals.Count(ctx, c.OrganizationID, related, repository.ExcludeDeleted)
	if err != nil {
		return info, err
	}
	info.RelatedLeads, info.RelatedDeals = leads, deals
	if leads > 0 {
		info.warn("Contact has %d related lead(s)", leads)
	}
	if deals > 0 {
		info.warn("Contact has %d related deal(s)", deals)
	}
	return info.done(), nil
}

type checkFunc[T any] func(ctx context.Context, doc *T) (DeleteInfo, error)

// softDelete runs the entity's checks and writes the deletion envelope.
func softDelete[T any](ctx context.Context, e *Engine, repo *repository.Repository[T], actor schemas.Actor, id bson.ObjectID, in DeleteInput, check checkFunc[T]) (*T, DeleteInfo, error) {
	if err := validation.Struct(in); err != nil {
		return nil, DeleteInfo{}, err
	}
	current, err := repo.Get(ctx, actor.OrganizationID, id, repository.ExcludeDeleted)
	if err != nil {
		return nil, DeleteInfo{}, err
	}
	info, err := check(ctx, current)
	if err != nil {
		return nil, DeleteInfo{}, err
	}
	if !info.CanDelete {
		return nil, info, &apperrors.ConflictError{
			Message:  fmt.Sprintf("%s cannot be deleted", repo.Name),
			Blockers: info.Blockers,
			Warnings: info.Warnings,
		}
	}
	deleted, err := repo.SoftDelete(ctx, actor.OrganizationID, id, repository.SoftDeleteParams{
		By:     actor.UserID,
		Reason: in.reason(),
		Notes:  in.Notes,
		At:     e.now(),
	})
	if err != nil {
		return nil, info, err
	}
	e.publish(actor.OrganizationID, schemas.EVENT_DELETED, repo.Name, id, nil)
	return deleted, info, nil
}

// restore clears the deletion envelope. No dependency check applies.
func restore[T any](ctx context.Context, e *Engine, repo *repository.Repository[T], actor schemas.Actor, id bson.ObjectID) (*T, error) {
	restored, err := repo.Restore(ctx, actor.OrganizationID, id, actor.UserID, e.now())
	if err != nil {
		return nil, err
	}
	e.publish(actor.OrganizationID, schemas.EVENT_RESTORED, repo.Name, id, restored)
	return restored, nil
}

func deleteInfo[T any](ctx context.Context, repo *repository.Repository[T], actor schemas.Actor, id bson.ObjectID, check checkFunc[T]) (DeleteInfo, error) {
	current, err := repo.Get(ctx, actor.OrganizationID, id, repository.ExcludeDeleted)
	if err != nil {
		return DeleteInfo{}, err
	}
	return check(ctx, current)
}

func (e *Engine) leadCheck(_ context.Context, l *schemas.Lead) (DeleteInfo, error) {
	return leadRules(l, e.now()), nil
}

func (e *Engine) dealCheck(_ context.Context, d *schemas.Deal) (DeleteInfo, error) {
	return dealRules(d, e.now()), nil
}

func (e *Engine) accountCheck(_ context.Context, a *schemas.Account) (DeleteInfo, error) {
	return accountRules(a, e.now()), nil
}
