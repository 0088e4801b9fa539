package lifecycle

import (
	"context"
	"time"

	"crm/history"
	"crm/repository"
	"crm/schemas"
	"crm/settings"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Publisher receives lifecycle events after a write succeeds.
type Publisher interface {
	Publish(orgID bson.ObjectID, event schemas.Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(bson.ObjectID, schemas.Event) {}

// Deps are the collaborators of an Engine. Repos and Settings are required.
type Deps struct {
	Repos     *repository.Set
	Settings  *settings.Resolver
	Stages    *settings.Stages
	History   *history.Recorder
	Sequencer AccountSequencer
	Events    Publisher
	Logger    logrus.FieldLogger
	Now       func() time.Time
}

// Engine applies the lead, contact, deal and account lifecycle rules,
// including the cascades between them.
type Engine struct {
	repos    *repository.Set
	settings *settings.Resolver
	stages   *settings.Stages
	history  *history.Recorder
	seq      AccountSequencer
	events   Publisher
	log      logrus.FieldLogger
	now      func() time.Time
}

func New(d Deps) *Engine {
	e := &Engine{
		repos:    d.Repos,
		settings: d.Settings,
		stages:   d.Stages,
		history:  d.History,
		seq:      d.Sequencer,
		events:   d.Events,
		log:      d.Logger,
		now:      d.Now,
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.log == nil {
		e.log = logrus.StandardLogger()
	}
	if e.events == nil {
		e.events = nopPublisher{}
	}
	if e.settings == nil {
		e.settings = settings.NewResolver(d.Repos.Settings, settings.WithClock(e.now))
	}
	if e.stages == nil {
		e.stages = settings.NewStages(d.Repos.DealStages, d.Repos.Deals, e.now)
	}
	if e.history == nil {
		e.history = history.NewRecorder(d.Repos.LeadHistory, e.now)
	}
	if e.seq == nil {
		e.seq = CountSequencer{Accounts: d.Repos.Accounts}
	}
	return e
}

func (e *Engine) publish(orgID bson.ObjectID, typ, entity string, id bson.ObjectID, data any) {
	e.events.Publish(orgID, schemas.Event{Type: typ, Entity: entity, ID: id, Data: data})
}

// ListOptions filters entity listings.
type ListOptions struct {
	IncludeDeleted bool
	DeletedOnly    bool
	ContactID      *bson.ObjectID
	LeadID         *bson.ObjectID
}

func (o ListOptions) filter() repository.Filter {
	f := repository.Filter{}
	if o.ContactID != nil {
		f["contact_id"] = *o.ContactID
	}
	if o.LeadID != nil {
		f["lead_id"] = *o.LeadID
	}
	return f
}

func (o ListOptions) find() repository.FindOptions {
	return repository.FindOptions{
		Deleted: repository.ScopeFromFlags(o.IncludeDeleted, o.DeletedOnly),
		Sort:    "created_at",
		Desc:    true,
	}
}

func list[T any](ctx context.Context, repo *repository.Repository[T], actor schemas.Actor, opts ListOptions) ([]T, error) {
	return repo.Find(ctx, actor.OrganizationID, opts.filter(), opts.find())
}

func modified(actor schemas.Actor, now time.Time) bson.M {
	return bson.M{"last_modified_by": actor.UserID, "updated_at": now}
}
