package lifecycle

import (
	"context"
	"sync"
	"testing"
	"time"

	"crm/repository"
	"crm/schemas"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"go.mongodb.org/mongo-driver/v2/bson"
)

var fixedNow = time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	events []schemas.Event
}

func (p *recordingPublisher) Publish(_ bson.ObjectID, ev schemas.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

type fixture struct {
	engine *Engine
	repos  *repository.Set
	events *recordingPublisher
	logs   *test.Hook
	admin  schemas.Actor
	user   schemas.Actor
	clock  *time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := fixedNow
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	repos := repository.NewMemorySet()
	events := &recordingPublisher{}
	org := bson.NewObjectID()

	f := &fixture{
		repos:  repos,
		events: events,
		logs:   hook,
		admin:  schemas.Actor{UserID: bson.NewObjectID(), OrganizationID: org, Role: schemas.ROLE_ADMIN},
		user:   schemas.Actor{UserID: bson.NewObjectID(), OrganizationID: org, Role: schemas.ROLE_USER},
		clock:  &clock,
	}
	f.engine = New(Deps{
		Repos:  repos,
		Events: events,
		Logger: log,
		Now:    func() time.Time { return *f.clock },
	})
	return f
}

func str(s string) *string { return &s }

func (f *fixture) otherOrg() schemas.Actor {
	return schemas.Actor{UserID: bson.NewObjectID(), OrganizationID: bson.NewObjectID(), Role: schemas.ROLE_ADMIN}
}

func (f *fixture) createLead(t *testing.T, in LeadInput) *LeadResult {
	t.Helper()
	res, err := f.engine.CreateLead(context.Background(), f.user, in)
	if err != nil {
		t.Fatalf("create lead: %v", err)
	}
	return res
}

func (f *fixture) createContact(t *testing.T, last string) *schemas.Contact {
	t.Helper()
	c, err := f.engine.CreateContact(context.Background(), f.user, ContactInput{FirstName: str("Ann"), LastName: str(last)})
	if err != nil {
		t.Fatalf("create contact: %v", err)
	}
	return c
}

// tick advances the fixture clock so stored timestamps order strictly.
func (f *fixture) tick() {
	*f.clock = f.clock.Add(time.Minute)
}
