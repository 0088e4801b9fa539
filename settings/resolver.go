package settings

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"
	"time"

	"crm/apperrors"
	"crm/repository"
	"crm/schemas"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Resolver serves per-organization CRM settings, creating them from the
// defaults on first access.
type Resolver struct {
	repo  *repository.Repository[schemas.CRMSettings]
	cache *Cache
	log   logrus.FieldLogger
	now   func() time.Time
}

type Option func(*Resolver)

func WithCache(c *Cache) Option { return func(r *Resolver) { r.cache = c } }

func WithLogger(l logrus.FieldLogger) Option { return func(r *Resolver) { r.log = l } }

func WithClock(now func() time.Time) Option { return func(r *Resolver) { r.now = now } }

func NewResolver(repo *repository.Repository[schemas.CRMSettings], opts ...Option) *Resolver {
	r := &Resolver{repo: repo, log: logrus.StandardLogger(), now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get returns the organization's settings, persisting the defaults when
// none exist yet.
func (r *Resolver) Get(ctx context.Context, actor schemas.Actor) (*schemas.CRMSettings, error) {
	s, err := r.load(ctx, actor.OrganizationID)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	fresh := Defaults()
	fresh.Created(actor, r.now())
	fresh.Modified(actor, r.now())
	created, err := r.repo.Insert(ctx, actor.OrganizationID, &fresh)
	if errors.Is(err, repository.ErrDuplicateKey) {
		// Another request created them first.
		return r.load(ctx, actor.OrganizationID)
	}
	if err != nil {
		return nil, fmt.Errorf("create default crm settings: %w", err)
	}
	sortStages(created.LeadStages)
	r.cachePut(ctx, created)
	return created, nil
}

// Peek returns the stored settings, or the defaults without persisting them.
func (r *Resolver) Peek(ctx context.Context, orgID bson.ObjectID) (*schemas.CRMSettings, error) {
	s, err := r.load(ctx, orgID)
	if errors.Is(err, apperrors.ErrNotFound) {
		d := Defaults()
		d.OrganizationID = orgID
		return &d, nil
	}
	return s, err
}

func (r *Resolver) load(ctx context.Context, orgID bson.ObjectID) (*schemas.CRMSettings, error) {
	if s, ok := r.cacheGet(ctx, orgID); ok {
		return s, nil
	}
	s, err := r.repo.FindOne(ctx, orgID, repository.Filter{}, repository.IncludeDeleted)
	if err != nil {
		return nil, err
	}
	sortStages(s.LeadStages)
	r.cachePut(ctx, s)
	return s, nil
}

// UpdateInput replaces the catalogs that are present and merges the
// settings map.
type UpdateInput struct {
	LeadFields  []schemas.LeadField        `json:"lead_fields"`
	LeadSources []schemas.LeadSourceOption `json:"lead_sources"`
	LeadStages  []schemas.LeadStageOption  `json:"lead_stages"`
	Settings    map[string]any             `json:"settings"`
}

func (r *Resolver) Update(ctx context.Context, actor schemas.Actor, in UpdateInput) (*schemas.CRMSettings, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	current, err := r.Get(ctx, actor)
	if err != nil {
		return nil, err
	}

	next := *current
	if in.LeadFields != nil {
		next.LeadFields = in.LeadFields
	}
	if in.LeadSources != nil {
		next.LeadSources = in.LeadSources
	}
	if in.LeadStages != nil {
		stages := slices.Clone(in.LeadStages)
		for i := range stages {
			if stages[i].Order == 0 {
				stages[i].Order = i + 1
			}
		}
		next.LeadStages = stages
	}
	if in.Settings != nil {
		merged := maps.Clone(current.Settings)
		if merged == nil {
			merged = map[string]any{}
		}
		maps.Copy(merged, in.Settings)
		next.Settings = merged
	}

	if problems := ValidateFieldConfig(&next); len(problems) > 0 {
		return nil, apperrors.Validation("lead_fields", strings.Join(problems, "; "))
	}

	next.Modified(actor, r.now())
	return r.replace(ctx, actor.OrganizationID, current.ID, &next)
}

// Reset restores the default catalog for the organization.
func (r *Resolver) Reset(ctx context.Context, actor schemas.Actor) (*schemas.CRMSettings, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	current, err := r.Get(ctx, actor)
	if err != nil {
		return nil, err
	}

	next := Defaults()
	next.ID = current.ID
	next.Audit = current.Audit
	next.Modified(actor, r.now())
	return r.replace(ctx, actor.OrganizationID, current.ID, &next)
}

func (r *Resolver) replace(ctx context.Context, orgID, id bson.ObjectID, s *schemas.CRMSettings) (*schemas.CRMSettings, error) {
	saved, err := r.repo.Replace(ctx, orgID, id, s)
	if err != nil {
		return nil, fmt.Errorf("save crm settings: %w", err)
	}
	// Invalidate only after the write; a read racing the replace may have
	// re-cached the old document.
	r.cacheDrop(ctx, orgID)
	sortStages(saved.LeadStages)
	return saved, nil
}

func (r *Resolver) ActiveSources(ctx context.Context, orgID bson.ObjectID) ([]schemas.LeadSourceOption, error) {
	s, err := r.Peek(ctx, orgID)
	if err != nil {
		return nil, err
	}
	out := []schemas.LeadSourceOption{}
	for _, src := range s.LeadSources {
		if src.Active {
			out = append(out, src)
		}
	}
	return out, nil
}

func (r *Resolver) ActiveStages(ctx context.Context, orgID bson.ObjectID) ([]schemas.LeadStageOption, error) {
	s, err := r.Peek(ctx, orgID)
	if err != nil {
		return nil, err
	}
	out := []schemas.LeadStageOption{}
	for _, st := range s.LeadStages {
		if st.Active {
			out = append(out, st)
		}
	}
	sortStages(out)
	return out, nil
}

func (r *Resolver) FieldConfig(ctx context.Context, orgID bson.ObjectID) ([]schemas.LeadField, error) {
	s, err := r.Peek(ctx, orgID)
	if err != nil {
		return nil, err
	}
	return s.LeadFields, nil
}

// LeadPolicy is the organization's lead validation policy.
type LeadPolicy struct {
	// Required holds lead document fields that must be non-empty.
	Required             []string
	RequireContactMethod bool
	DuplicateDetection   bool
}

func (r *Resolver) LeadPolicy(ctx context.Context, orgID bson.ObjectID) (LeadPolicy, error) {
	s, err := r.Peek(ctx, orgID)
	if err != nil {
		return LeadPolicy{}, err
	}
	return PolicyOf(s), nil
}

func PolicyOf(s *schemas.CRMSettings) LeadPolicy {
	p := LeadPolicy{
		RequireContactMethod: s.Flag(KEY_REQUIRE_CONTACT_METHOD),
		DuplicateDetection:   s.Flag(KEY_DUPLICATE_DETECTION),
	}
	for _, f := range s.LeadFields {
		if !f.Active || !f.Required {
			continue
		}
		if col, ok := leadFieldColumns[f.Name]; ok {
			p.Required = append(p.Required, col)
		}
	}
	return p
}

// ValidateFieldConfig lists the problems of a lead field configuration.
func ValidateFieldConfig(s *schemas.CRMSettings) []string {
	var problems []string
	lastNameActive := false
	contactActive := false
	for _, f := range s.LeadFields {
		if !f.Active {
			continue
		}
		switch f.Name {
		case "lastName":
			lastNameActive = true
		case "email", "phone":
			contactActive = true
		}
	}
	if !lastNameActive {
		problems = append(problems, "Last Name field must be active")
	}
	if !contactActive {
		problems = append(problems, "At least Email or Phone field must be active for contact purposes")
	}
	return problems
}

func sortStages(stages []schemas.LeadStageOption) {
	sort.SliceStable(stages, func(i, j int) bool { return stages[i].Order < stages[j].Order })
}

func requireAdmin(actor schemas.Actor) error {
	if !actor.IsAdmin() {
		return apperrors.Forbidden("admin role required")
	}
	return nil
}

func (r *Resolver) cacheGet(ctx context.Context, orgID bson.ObjectID) (*schemas.CRMSettings, bool) {
	if r.cache == nil {
		return nil, false
	}
	s, ok, err := r.cache.Get(ctx, orgID)
	if err != nil {
		r.log.WithError(err).WithField("organization_id", orgID.Hex()).Warn("settings cache read failed")
		return nil, false
	}
	return s, ok
}

func (r *Resolver) cachePut(ctx context.Context, s *schemas.CRMSettings) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Set(ctx, s); err != nil {
		r.log.WithError(err).WithField("organization_id", s.OrganizationID.Hex()).Warn("settings cache write failed")
	}
}

func (r *Resolver) cacheDrop(ctx context.Context, orgID bson.ObjectID) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Invalidate(ctx, orgID); err != nil {
		r.log.WithError(err).WithField("organization_id", orgID.Hex()).Warn("settings cache invalidation failed")
	}
}

func isNotFound(err error) bool {
	return err != nil && errors.Is(err, apperrors.ErrNotFound)
}
