package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"worklogz/source/schemas"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// EnsureDefaultStages returns the active stages of a pipeline, seeding the
// catalog defaults first when it has none. Concurrent seeders converge on
// one set: duplicate inserts are ignored and the list is always re-read.
func (s *Service) EnsureDefaultStages(ctx context.Context, pipelineType string) ([]schemas.Stage, error) {
	pipelineType, err := s.pipelineType(pipelineType)
	if err != nil {
		return nil, err
	}

	stages, err := s.store.ListActiveStages(ctx, pipelineType)
	if err != nil {
		return nil, fmt.Errorf("listing stages: %w", err)
	}
	if len(stages) > 0 {
		return stages, nil
	}

	now := s.now()
	for i, template := range s.catalog[pipelineType].Stages {
		stage := &schemas.Stage{
			Name:         template.Name,
			Color:        template.Color,
			Order:        i,
			PipelineType: pipelineType,
			IsDefault:    true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		err := s.store.InsertStage(ctx, stage)
		if err != nil && !errors.Is(err, ErrDuplicateKey) {
			return nil, fmt.Errorf("seeding stage %q: %w", template.Name, err)
		}
	}

	stages, err = s.store.ListActiveStages(ctx, pipelineType)
	if err != nil {
		return nil, fmt.Errorf("listing seeded stages: %w", err)
	}
	return stages, nil
}

// ListStages returns the active stages without seeding.
func (s *Service) ListStages(ctx context.Context, pipelineType string) ([]schemas.Stage, error) {
	pipelineType, err := s.pipelineType(pipelineType)
	if err != nil {
		return nil, err
	}
	stages, err := s.store.ListActiveStages(ctx, pipelineType)
	if err != nil {
		return nil, fmt.Errorf("listing stages: %w", err)
	}
	return stages, nil
}

func (s *Service) CreateStage(ctx context.Context, input schemas.StageInput) (*schemas.Stage, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errEmptyStageName
	}
	pipelineType, err := s.pipelineType(input.PipelineType)
	if err != nil {
		return nil, err
	}

	now := s.now()
	stage := &schemas.Stage{
		Name:         name,
		Description:  strings.TrimSpace(input.Description),
		Color:        strings.TrimSpace(input.Color),
		PipelineType: pipelineType,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.store.RunInTransaction(ctx, func(ctx context.Context) error {
		active, err := s.store.ListActiveStages(ctx, pipelineType)
		if err != nil {
			return fmt.Errorf("listing stages: %w", err)
		}
		if nameTaken(active, name, bson.ObjectID{}) {
			return errDuplicateName
		}

		stage.Order = len(active)
		if err := s.store.InsertStage(ctx, stage); err != nil {
			if errors.Is(err, ErrDuplicateKey) {
				return errDuplicateName
			}
			return fmt.Errorf("inserting stage: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, schemas.EVENT_STAGE_CREATED, pipelineType, stage.ID.Hex(), stage, "Stage created")
	return stage, nil
}

func (s *Service) UpdateStage(ctx context.Context, id string, patch schemas.StagePatch) (*schemas.Stage, error) {
	stageID, err := parseID(id, errInvalidStageID)
	if err != nil {
		return nil, err
	}

	var stage *schemas.Stage
	err = s.store.RunInTransaction(ctx, func(ctx context.Context) error {
		stage, err = s.activeStage(ctx, stageID)
		if err != nil {
			return err
		}

		if patch.Name != nil {
			name := strings.TrimSpace(*patch.Name)
			if name == "" {
				return errEmptyStageName
			}
			if name != stage.Name {
				active, err := s.store.ListActiveStages(ctx, stage.PipelineType)
				if err != nil {
					return fmt.Errorf("listing stages: %w", err)
				}
				if nameTaken(active, name, stage.ID) {
					return errDuplicateName
				}
			}
			stage.Name = name
		}
		if patch.Description != nil {
			stage.Description = strings.TrimSpace(*patch.Description)
		}
		if patch.Color != nil {
			stage.Color = strings.TrimSpace(*patch.Color)
		}
		stage.UpdatedAt = s.now()

		if err := s.store.ReplaceStage(ctx, stage); err != nil {
			if errors.Is(err, ErrDuplicateKey) {
				return errDuplicateName
			}
			return fmt.Errorf("saving stage: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, schemas.EVENT_STAGE_UPDATED, stage.PipelineType, stage.ID.Hex(), stage, "Stage updated")
	return stage, nil
}

// DeleteStage archives a default stage or removes a custom one. It refuses
// while any lead references the stage, then renumbers the remaining
// active stages of the pipeline.
func (s *Service) DeleteStage(ctx context.Context, id string) (*schemas.Stage, error) {
	stageID, err := parseID(id, errInvalidStageID)
	if err != nil {
		return nil, err
	}

	var stage *schemas.Stage
	err = s.store.RunInTransaction(ctx, func(ctx context.Context) error {
		stage, err = s.activeStage(ctx, stageID)
		if err != nil {
			return err
		}

		leads, err := s.store.CountStageLeads(ctx, stageID)
		if err != nil {
			return fmt.Errorf("counting stage leads: %w", err)
		}
		if leads > 0 {
			return errStageHasLeads
		}

		if stage.IsDefault {
			stage.IsArchived = true
			stage.UpdatedAt = s.now()
			if err := s.store.ReplaceStage(ctx, stage); err != nil {
				return fmt.Errorf("archiving stage: %w", err)
			}
		} else if err := s.store.DeleteStage(ctx, stageID); err != nil {
			return fmt.Errorf("deleting stage: %w", err)
		}

		return s.renumberStages(ctx, stage.PipelineType)
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, schemas.EVENT_STAGE_DELETED, stage.PipelineType, stage.ID.Hex(), stage, "Stage deleted")
	return stage, nil
}

// ReorderStages sets order = index for every listed stage. The list must
// only hold active stages of the pipeline; stages left out keep their order.
func (s *Service) ReorderStages(ctx context.Context, pipelineType string, stageOrder []string) ([]schemas.Stage, error) {
	pipelineType, err := s.pipelineType(pipelineType)
	if err != nil {
		return nil, err
	}
	if len(stageOrder) == 0 {
		return nil, errEmptyStageOrder
	}

	ids := make([]bson.ObjectID, 0, len(stageOrder))
	seen := map[bson.ObjectID]bool{}
	for _, hex := range stageOrder {
		id, err := parseID(hex, errForeignStageOrder)
		if err != nil {
			return nil, err
		}
		if seen[id] {
			return nil, errDuplicateStageOrder
		}
		seen[id] = true
		ids = append(ids, id)
	}

	var stages []schemas.Stage
	err = s.store.RunInTransaction(ctx, func(ctx context.Context) error {
		active, err := s.store.ListActiveStages(ctx, pipelineType)
		if err != nil {
			return fmt.Errorf("listing stages: %w", err)
		}
		current := make(map[bson.ObjectID]int, len(active))
		for _, stage := range active {
			current[stage.ID] = stage.Order
		}
		for _, id := range ids {
			if _, ok := current[id]; !ok {
				return errForeignStageOrder
			}
		}

		for order, id := range ids {
			if current[id] == order {
				continue
			}
			if err := s.store.SetStageOrder(ctx, id, order); err != nil {
				return fmt.Errorf("setting stage order: %w", err)
			}
		}

		stages, err = s.store.ListActiveStages(ctx, pipelineType)
		if err != nil {
			return fmt.Errorf("listing stages: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, schemas.EVENT_STAGE_REORDERED, pipelineType, "", stages, "Stages reordered")
	return stages, nil
}

// renumberStages rewrites active stage orders to 0..n-1 keeping their
// current relative order.
func (s *Service) renumberStages(ctx context.Context, pipelineType string) error {
	active, err := s.store.ListActiveStages(ctx, pipelineType)
	if err != nil {
		return fmt.Errorf("listing stages: %w", err)
	}
	for i, stage := range active {
		if stage.Order == i {
			continue
		}
		if err := s.store.SetStageOrder(ctx, stage.ID, i); err != nil {
			return fmt.Errorf("renumbering stage %s: %w", stage.ID.Hex(), err)
		}
	}
	return nil
}

func nameTaken(active []schemas.Stage, name string, except bson.ObjectID) bool {
	for _, stage := range active {
		if stage.ID != except && stage.Name == name {
			return true
		}
	}
	return false
}
