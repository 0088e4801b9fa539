package settings

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

// Stages manages the per-organization DealStage catalog. At most one stage
// per organization is the default.
type Stages struct {
	stages *repository.Repository[schemas.DealStage]
	deals  *repository.Repository[schemas.Deal]
	now    func() time.Time
}

func NewStages(stages *repository.Repository[schemas.DealStage], deals *repository.Repository[schemas.Deal], now func() time.Time) *Stages {
	if now == nil {
		now = time.Now
	}
	return &Stages{stages: stages, deals: deals, now: now}
}

type StageInput struct {
	Name        *string `json:"name" validate:"omitnil,notblank"`
	Order       *int    `json:"order" validate:"omitempty,min=0"`
	Probability *int    `json:"probability" validate:"omitempty,min=0,max=100"`
	IsActive    *bool   `json:"is_active"`
	IsDefault   *bool   `json:"is_default"`
	Color       *string `json:"color"`
	Description *string `json:"description"`
}

type StageOrder struct {
	ID    bson.ObjectID `json:"id"`
	Order int           `json:"order"`
}

func (s *Stages) List(ctx context.Context, actor schemas.Actor) ([]schemas.DealStage, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.stages.Find(ctx, actor.OrganizationID, repository.Filter{}, repository.FindOptions{Sort: "order"})
}

// Active lists the active stages of the organization for any role.
func (s *Stages) Active(ctx context.Context, actor schemas.Actor) ([]schemas.DealStage, error) {
	return s.stages.Find(ctx, actor.OrganizationID, repository.Filter{"is_active": true}, repository.FindOptions{Sort: "order"})
}

// DefaultProbability returns the probability of the organization's default stage.
func (s *Stages) DefaultProbability(ctx context.Context, orgID bson.ObjectID) (int, bool, error) {
	stage, err := s.stages.FindOne(ctx, orgID, repository.Filter{"is_default": true}, repository.ExcludeDeleted)
	if isNotFound(err) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return stage.Probability, true, nil
}

// Names lists the stage names a deal may use in the organization. An
// organization without a catalog uses schemas.DealStages.
func (s *Stages) Names(ctx context.Context, orgID bson.ObjectID) ([]string, error) {
	stages, err := s.stages.Find(ctx, orgID, repository.Filter{}, repository.FindOptions{Sort: "order"})
	if err != nil {
		return nil, err
	}
	if len(stages) == 0 {
		return schemas.DealStages, nil
	}
	names := make([]string, 0, len(stages))
	for _, st := range stages {
		names = append(names, st.Name)
	}
	return names, nil
}

func (s *Stages) Create(ctx context.Context, actor schemas.Actor, in StageInput) (*schemas.DealStage, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if in.Name == nil {
		return nil, apperrors.Validation("name", "is required")
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	last, err := s.stages.Find(ctx, actor.OrganizationID, repository.Filter{}, repository.FindOptions{Sort: "order", Desc: true, Limit: 1})
	if err != nil {
		return nil, err
	}
	order := 1
	if len(last) > 0 {
		order = last[0].Order + 1
	}

	stage := schemas.DealStage{
		Name:        *in.Name,
		Order:       order,
		Probability: schemas.DEFAULT_DEAL_PROBABILITY,
		IsActive:    true,
		Color:       schemas.DEFAULT_STAGE_COLOR,
	}
	applyStageInput(&stage, in)
	if in.Order != nil {
		stage.Order = *in.Order
	}
	stage.Created(actor, s.now())

	if stage.IsDefault {
		if err := s.clearDefault(ctx, actor); err != nil {
			return nil, err
		}
	}
	return s.stages.Insert(ctx, actor.OrganizationID, &stage)
}

func (s *Stages) Update(ctx context.Context, actor schemas.Actor, id bson.ObjectID, in StageInput) (*schemas.DealStage, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if _, err := s.stages.Get(ctx, actor.OrganizationID, id, repository.ExcludeDeleted); err != nil {
		return nil, err
	}

	set := bson.M{"last_modified_by": actor.UserID, "updated_at": s.now()}
	if in.Name != nil {
		set["name"] = *in.Name
	}
	if in.Order != nil {
		set["order"] = *in.Order
	}
	if in.Probability != nil {
		set["probability"] = *in.Probability
	}
	if in.IsActive != nil {
		set["is_active"] = *in.IsActive
	}
	if in.IsDefault != nil {
		set["is_default"] = *in.IsDefault
	}
	if in.Color != nil {
		set["color"] = *in.Color
	}
	if in.Description != nil {
		set["description"] = *in.Description
	}

	if in.IsDefault != nil && *in.IsDefault {
		if err := s.clearDefault(ctx, actor); err != nil {
			return nil, err
		}
	}
	return s.stages.Update(ctx, actor.OrganizationID, id, set)
}

// Reorder assigns new orders to the listed stages. Stages of other
// organizations are reported as not found.
func (s *Stages) Reorder(ctx context.Context, actor schemas.Actor, orders []StageOrder) ([]schemas.DealStage, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, apperrors.Validation("stage_orders", "is required")
	}
	for _, o := range orders {
		_, err := s.stages.Update(ctx, actor.OrganizationID, o.ID, bson.M{
			"order":            o.Order,
			"last_modified_by": actor.UserID,
			"updated_at":       s.now(),
		})
		if err != nil {
			return nil, err
		}
	}
	return s.List(ctx, actor)
}

// Delete removes a stage that no live deal uses.
func (s *Stages) Delete(ctx context.Context, actor schemas.Actor, id bson.ObjectID) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	stage, err := s.stages.Get(ctx, actor.OrganizationID, id, repository.ExcludeDeleted)
	if err != nil {
		return err
	}
	inUse, err := s.deals.Count(ctx, actor.OrganizationID, repository.Filter{"stage": stage.Name}, repository.ExcludeDeleted)
	if err != nil {
		return err
	}
	if inUse > 0 {
		return apperrors.Conflict(fmt.Sprintf("Cannot delete stage. %d deal(s) are currently using this stage.", inUse))
	}
	return s.stages.Delete(ctx, actor.OrganizationID, id)
}

// Initialize seeds the default pipeline for an organization without stages.
func (s *Stages) Initialize(ctx context.Context, actor schemas.Actor) ([]schemas.DealStage, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	n, err := s.stages.Count(ctx, actor.OrganizationID, repository.Filter{}, repository.IncludeDeleted)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, apperrors.Conflict("Deal stages already exist for this organization")
	}

	now := s.now()
	for i, d := range defaultDealStages {
		stage := schemas.DealStage{
			Name:        d.name,
			Order:       i + 1,
			Probability: d.probability,
			IsActive:    true,
			IsDefault:   d.isDefault,
			Color:       d.color,
		}
		stage.Created(actor, now)
		if _, err := s.stages.Insert(ctx, actor.OrganizationID, &stage); err != nil {
			return nil, err
		}
	}
	return s.List(ctx, actor)
}

func (s *Stages) clearDefault(ctx context.Context, actor schemas.Actor) error {
	_, err := s.stages.UpdateMany(ctx, actor.OrganizationID, repository.Filter{"is_default": true}, bson.M{
		"is_default": false,
		"updated_at": s.now(),
	})
	return err
}

func applyStageInput(stage *schemas.DealStage, in StageInput) {
	if in.Probability != nil {
		stage.Probability = *in.Probability
	}
	if in.IsActive != nil {
		stage.IsActive = *in.IsActive
	}
	if in.IsDefault != nil {
		stage.IsDefault = *in.IsDefault
	}
	if in.Color != nil {
		stage.Color = *in.Color
	}
	if in.Description != nil {
		stage.Description = *in.Description
	}
}
