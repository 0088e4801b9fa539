package history

import (
	"context"
	"fmt"
	"time"

	"crm/repository"
	"crm/schemas"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Recorder appends LeadHistory rows. Rows are never updated or deleted.
type Recorder struct {
	repo *repository.Repository[schemas.LeadHistory]
	now  func() time.Time
}

func NewRecorder(repo *repository.Repository[schemas.LeadHistory], now func() time.Time) *Recorder {
	if now == nil {
		now = time.Now
	}
	return &Recorder{repo: repo, now: now}
}

// trackedFields are the lead fields whose changes are recorded.
var trackedFields = []string{
	"first_name", "last_name", "email", "phone", "lead_source",
	"lead_stage", "company", "job_title", "budget", "timeline",
}

func leadValues(l *schemas.Lead) map[string]any {
	return map[string]any{
		"first_name":  l.FirstName,
		"last_name":   l.LastName,
		"email":       l.Email,
		"phone":       l.Phone,
		"lead_source": l.LeadSource,
		"lead_stage":  l.LeadStage,
		"company":     l.Company,
		"job_title":   l.JobTitle,
		"budget":      l.Budget,
		"timeline":    l.Timeline,
	}
}

// Diff lists the tracked fields that differ between two lead snapshots.
func Diff(before, after *schemas.Lead) (changes, oldValues, newValues map[string]any) {
	changes, oldValues, newValues = map[string]any{}, map[string]any{}, map[string]any{}
	b, a := leadValues(before), leadValues(after)
	for _, f := range trackedFields {
		if b[f] == a[f] {
			continue
		}
		changes[f] = bson.M{"from": b[f], "to": a[f]}
		oldValues[f] = b[f]
		newValues[f] = a[f]
	}
	return changes, oldValues, newValues
}

func (r *Recorder) append(ctx context.Context, actor schemas.Actor, leadID bson.ObjectID, action string, changes, oldValues, newValues map[string]any) (*schemas.LeadHistory, error) {
	row := &schemas.LeadHistory{
		LeadID:    leadID,
		Action:    action,
		Changes:   changes,
		OldValues: oldValues,
		NewValues: newValues,
		UserID:    actor.UserID,
		CreatedAt: r.now(),
	}
	saved, err := r.repo.Insert(ctx, actor.OrganizationID, row)
	if err != nil {
		return nil, fmt.Errorf("record lead %s: %w", action, err)
	}
	return saved, nil
}

// Created records a new lead with the fields the caller provided.
func (r *Recorder) Created(ctx context.Context, actor schemas.Actor, lead *schemas.Lead, provided map[string]any) (*schemas.LeadHistory, error) {
	return r.append(ctx, actor, lead.ID, schemas.HISTORY_ACTION_CREATED, provided, map[string]any{}, provided)
}

// Updated records the diff between two snapshots. Nothing is written when
// no tracked field changed.
func (r *Recorder) Updated(ctx context.Context, actor schemas.Actor, before, after *schemas.Lead) (*schemas.LeadHistory, error) {
	changes, oldValues, newValues := Diff(before, after)
	if len(changes) == 0 {
		return nil, nil
	}
	action := schemas.HISTORY_ACTION_UPDATED
	if _, ok := changes["lead_stage"]; ok {
		action = schemas.HISTORY_ACTION_STATUS_CHANGED
	}
	return r.append(ctx, actor, after.ID, action, changes, oldValues, newValues)
}

func (r *Recorder) Deleted(ctx context.Context, actor schemas.Actor, lead *schemas.Lead) (*schemas.LeadHistory, error) {
	reason := ""
	if lead.DeletionReason != nil {
		reason = *lead.DeletionReason
	}
	return r.append(ctx, actor, lead.ID, schemas.HISTORY_ACTION_DELETED,
		map[string]any{"is_deleted": bson.M{"from": false, "to": true}},
		map[string]any{"is_deleted": false},
		map[string]any{"is_deleted": true, "deletion_reason": reason},
	)
}

func (r *Recorder) Restored(ctx context.Context, actor schemas.Actor, lead *schemas.Lead) (*schemas.LeadHistory, error) {
	return r.append(ctx, actor, lead.ID, schemas.HISTORY_ACTION_RESTORED,
		map[string]any{"is_deleted": bson.M{"from": true, "to": false}},
		map[string]any{"is_deleted": true},
		map[string]any{"is_deleted": false},
	)
}

// List returns the history of a lead, newest first.
func (r *Recorder) List(ctx context.Context, orgID, leadID bson.ObjectID) ([]schemas.LeadHistory, error) {
	return r.repo.Find(ctx, orgID, repository.Filter{"lead_id": leadID}, repository.FindOptions{
		Deleted: repository.IncludeDeleted,
		Sort:    "created_at",
		Desc:    true,
	})
}
