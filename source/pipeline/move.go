package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"worklogz/source/ordering"
	"worklogz/source/schemas"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// MoveLead places a lead in a stage at a precise index. The lead first gets
// the target stage with a pending position, the vacated stage is
// renumbered, then the lead is spliced into the destination column at the
// clamped index and the destination is renumbered. A nil index appends.
func (s *Service) MoveLead(ctx context.Context, id string, input schemas.LeadMoveInput, actor string) (*schemas.PopulatedLead, error) {
	leadID, err := parseID(id, errInvalidLeadID)
	if err != nil {
		return nil, err
	}
	var targetID *bson.ObjectID
	if strings.TrimSpace(input.StageID) != "" {
		parsed, err := parseID(input.StageID, errInvalidStageID)
		if err != nil {
			return nil, err
		}
		targetID = &parsed
	}

	var lead *schemas.Lead
	var source bson.ObjectID
	err = s.store.RunInTransaction(ctx, func(ctx context.Context) error {
		lead, err = s.getLead(ctx, leadID)
		if err != nil {
			return err
		}

		target := lead.Stage
		if targetID != nil {
			target = *targetID
		}
		stage, err := s.activeStage(ctx, target)
		if err != nil {
			return err
		}
		if stage.PipelineType != lead.PipelineType {
			return errWrongPipeline
		}

		now := s.now()
		source = lead.Stage
		lead.Stage = stage.ID
		lead.StagePosition = ordering.Pending().Pointer()
		lead.StageHistory = append(lead.StageHistory, schemas.StageHistoryEntry{
			Stage:   stage.ID,
			MovedAt: now,
			MovedBy: actor,
			Note:    input.Note,
		})
		lead.UpdatedBy = actor
		lead.UpdatedAt = now
		if err := s.store.ReplaceLead(ctx, lead); err != nil {
			return fmt.Errorf("saving lead: %w", err)
		}

		if source != stage.ID {
			if err := s.normalizeStage(ctx, source); err != nil {
				return err
			}
		}

		return s.insertIntoStage(ctx, lead, input.Position)
	})
	if err != nil {
		return nil, err
	}

	populated := s.populateOne(ctx, lead)
	s.emit(ctx, schemas.EVENT_LEAD_MOVED, lead.PipelineType, lead.ID.Hex(), map[string]any{
		"lead":         populated,
		"from_stage":   source.Hex(),
		"to_stage":     lead.Stage.Hex(),
		"new_position": lead.StagePosition,
	}, "Lead moved")
	return populated, nil
}

// insertIntoStage splices lead into its stage column at index and persists
// every position that changed.
func (s *Service) insertIntoStage(ctx context.Context, lead *schemas.Lead, index *int) error {
	column, err := s.stageColumn(ctx, lead.Stage)
	if err != nil {
		return err
	}

	column, at := ordering.Insert(column, lead.OrderingEntry(), index)
	if err := s.applyChanges(ctx, ordering.Renumber(column)); err != nil {
		return err
	}

	lead.StagePosition = ordering.Fixed(at).Pointer()
	return nil
}

// NormalizeStagePositions rewrites the positions of a stage's leads to the
// dense sequence of their board order.
func (s *Service) NormalizeStagePositions(ctx context.Context, stageID string) error {
	id, err := parseID(stageID, errInvalidStageID)
	if err != nil {
		return err
	}
	return s.store.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.normalizeStage(ctx, id)
	})
}

func (s *Service) normalizeStage(ctx context.Context, stageID bson.ObjectID) error {
	column, err := s.stageColumn(ctx, stageID)
	if err != nil {
		return err
	}
	return s.applyChanges(ctx, ordering.Renumber(column))
}

// stageColumn loads the sorted column of a stage. Callers run inside a
// pipeline transaction and go on to rewrite the column.
func (s *Service) stageColumn(ctx context.Context, stageID bson.ObjectID) ([]ordering.Entry, error) {
	if err := s.store.LockStageColumn(ctx, stageID); err != nil && !errors.Is(err, ErrRecordNotFound) {
		return nil, fmt.Errorf("locking stage %s: %w", stageID.Hex(), err)
	}
	leads, err := s.store.ListStageLeads(ctx, stageID)
	if err != nil {
		return nil, fmt.Errorf("listing leads of stage %s: %w", stageID.Hex(), err)
	}
	column := make([]ordering.Entry, 0, len(leads))
	for _, lead := range leads {
		column = append(column, lead.OrderingEntry())
	}
	ordering.Sort(column)
	return column, nil
}

func (s *Service) applyChanges(ctx context.Context, changes []ordering.Change) error {
	for _, change := range changes {
		id, err := bson.ObjectIDFromHex(change.ID)
		if err != nil {
			return fmt.Errorf("renumbering lead %q: %w", change.ID, err)
		}
		if err := s.store.SetLeadPosition(ctx, id, change.Position); err != nil {
			return fmt.Errorf("renumbering lead %s: %w", change.ID, err)
		}
	}
	return nil
}
