package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"

	"worklogz/source/ordering"
	"worklogz/source/schemas"

	"go.mongodb.org/mongo-driver/v2/bson"
)

func (s *Service) CreateLead(ctx context.Context, input schemas.LeadInput, actor string) (*schemas.PopulatedLead, error) {
	fullName := strings.TrimSpace(input.FullName)
	phone := strings.TrimSpace(input.Phone)
	if fullName == "" || phone == "" {
		return nil, errMissingLeadFields
	}
	followUp := strings.TrimSpace(input.FollowUpDate)
	if followUp != "" && !isValidDate(followUp) {
		return nil, errInvalidFollowUp
	}
	pipelineType, err := s.pipelineType(input.PipelineType)
	if err != nil {
		return nil, err
	}

	stage, err := s.resolveStage(ctx, pipelineType, input.Stage)
	if err != nil {
		return nil, err
	}

	owner := strings.TrimSpace(input.LeadOwner)
	if owner == "" {
		owner = actor
	}

	now := s.now()
	lead := &schemas.Lead{
		FullName:       fullName,
		Phone:          phone,
		Email:          strings.ToLower(strings.TrimSpace(input.Email)),
		AlternatePhone: strings.TrimSpace(input.AlternatePhone),
		City:           strings.TrimSpace(input.City),
		College:        strings.TrimSpace(input.College),
		Course:         strings.TrimSpace(input.Course),
		Source:         strings.TrimSpace(input.Source),
		Status:         strings.TrimSpace(input.Status),
		Notes:          input.Notes,
		FollowUpDate:   followUp,
		ExpectedValue:  input.ExpectedValue,
		PipelineType:   pipelineType,
		Stage:          stage.ID,
		LeadOwner:      owner,
		AssignedUsers:  withOwner(input.AssignedUsers, owner),
		StageHistory: []schemas.StageHistoryEntry{{
			Stage:   stage.ID,
			MovedAt: now,
			MovedBy: actor,
			Note:    schemas.LEAD_CREATED_NOTE,
		}},
		CreatedBy: actor,
		UpdatedBy: actor,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// A duplicate code aborts the whole transaction, so every retry starts
	// a fresh one.
	for attempt := 1; ; attempt++ {
		err = s.store.RunInTransaction(ctx, func(ctx context.Context) error {
			return s.insertLead(ctx, lead)
		})
		if err == nil {
			break
		}
		if !errors.Is(err, ErrDuplicateKey) || attempt >= leadInsertAttempts {
			return nil, err
		}
	}

	populated := s.populateOne(ctx, lead)
	s.emit(ctx, schemas.EVENT_LEAD_CREATED, pipelineType, lead.ID.Hex(), populated, "Lead created")
	return populated, nil
}

// insertLead appends lead to the end of its stage column under a fresh code.
func (s *Service) insertLead(ctx context.Context, lead *schemas.Lead) error {
	if err := s.store.LockStageColumn(ctx, lead.Stage); err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return errStageNotFound
		}
		return fmt.Errorf("locking stage column: %w", err)
	}

	count, err := s.store.CountStageLeads(ctx, lead.Stage)
	if err != nil {
		return fmt.Errorf("counting stage leads: %w", err)
	}
	lead.StagePosition = ordering.Fixed(count).Pointer()

	lead.LeadCode, err = s.GenerateLeadCode(ctx, lead.PipelineType)
	if err != nil {
		return err
	}

	if err := s.store.InsertLead(ctx, lead); err != nil {
		return fmt.Errorf("inserting lead: %w", err)
	}
	return nil
}

// resolveStage returns the explicit stage when given, else the first active
// stage of the pipeline.
func (s *Service) resolveStage(ctx context.Context, pipelineType, explicit string) (*schemas.Stage, error) {
	if strings.TrimSpace(explicit) != "" {
		id, err := parseID(explicit, errInvalidStageID)
		if err != nil {
			return nil, err
		}
		stage, err := s.activeStage(ctx, id)
		if err != nil {
			return nil, err
		}
		if stage.PipelineType != pipelineType {
			return nil, errWrongPipeline
		}
		return stage, nil
	}

	stages, err := s.store.ListActiveStages(ctx, pipelineType)
	if err != nil {
		return nil, fmt.Errorf("listing stages: %w", err)
	}
	if len(stages) == 0 {
		return nil, errNoStageResolved
	}
	return &stages[0], nil
}

// UpdateLead applies an allow-listed patch. A stage change appends the lead
// to the end of the destination column and renumbers the vacated one.
func (s *Service) UpdateLead(ctx context.Context, id string, patch schemas.LeadPatch, actor string) (*schemas.PopulatedLead, error) {
	leadID, err := parseID(id, errInvalidLeadID)
	if err != nil {
		return nil, err
	}
	if patch.FollowUpDate != nil {
		if v := trimmed(patch.FollowUpDate); v != "" && !isValidDate(v) {
			return nil, errInvalidFollowUp
		}
	}

	var lead *schemas.Lead
	err = s.store.RunInTransaction(ctx, func(ctx context.Context) error {
		lead, err = s.getLead(ctx, leadID)
		if err != nil {
			return err
		}
		source := lead.Stage

		if patch.FullName != nil {
			if lead.FullName = trimmed(patch.FullName); lead.FullName == "" {
				return errEmptyLeadField
			}
		}
		if patch.Phone != nil {
			if lead.Phone = trimmed(patch.Phone); lead.Phone == "" {
				return errEmptyLeadField
			}
		}
		if patch.Email != nil {
			lead.Email = strings.ToLower(trimmed(patch.Email))
		}
		if patch.AlternatePhone != nil {
			lead.AlternatePhone = trimmed(patch.AlternatePhone)
		}
		if patch.City != nil {
			lead.City = trimmed(patch.City)
		}
		if patch.College != nil {
			lead.College = trimmed(patch.College)
		}
		if patch.Course != nil {
			lead.Course = trimmed(patch.Course)
		}
		if patch.Source != nil {
			lead.Source = trimmed(patch.Source)
		}
		if patch.Status != nil {
			lead.Status = trimmed(patch.Status)
		}
		if patch.Notes != nil {
			lead.Notes = *patch.Notes
		}
		if patch.FollowUpDate != nil {
			lead.FollowUpDate = trimmed(patch.FollowUpDate)
		}
		if patch.ExpectedValue != nil {
			lead.ExpectedValue = *patch.ExpectedValue
		}
		if patch.LeadOwner != nil {
			if owner := trimmed(patch.LeadOwner); owner != "" {
				lead.LeadOwner = owner
			}
		}
		if patch.AssignedUsers != nil {
			lead.AssignedUsers = *patch.AssignedUsers
		}
		lead.AssignedUsers = withOwner(lead.AssignedUsers, lead.LeadOwner)

		now := s.now()
		stageChanged := false
		if target := trimmed(patch.Stage); target != "" {
			targetID, err := parseID(target, errInvalidStageID)
			if err != nil {
				return err
			}
			if targetID != source {
				stage, err := s.activeStage(ctx, targetID)
				if err != nil {
					return err
				}
				if stage.PipelineType != lead.PipelineType {
					return errWrongPipeline
				}
				count, err := s.store.CountStageLeads(ctx, targetID)
				if err != nil {
					return fmt.Errorf("counting stage leads: %w", err)
				}
				lead.Stage = targetID
				lead.StagePosition = ordering.Fixed(count).Pointer()
				lead.StageHistory = append(lead.StageHistory, schemas.StageHistoryEntry{
					Stage:   targetID,
					MovedAt: now,
					MovedBy: actor,
					Note:    "Stage changed to " + stage.Name,
				})
				stageChanged = true
			}
		}

		lead.UpdatedBy = actor
		lead.UpdatedAt = now
		if err := s.store.ReplaceLead(ctx, lead); err != nil {
			return fmt.Errorf("saving lead: %w", err)
		}

		if stageChanged {
			return s.normalizeStage(ctx, source)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	populated := s.populateOne(ctx, lead)
	s.emit(ctx, schemas.EVENT_LEAD_UPDATED, lead.PipelineType, lead.ID.Hex(), populated, "Lead updated")
	return populated, nil
}

func (s *Service) DeleteLead(ctx context.Context, id string) error {
	leadID, err := parseID(id, errInvalidLeadID)
	if err != nil {
		return err
	}

	var lead *schemas.Lead
	err = s.store.RunInTransaction(ctx, func(ctx context.Context) error {
		lead, err = s.getLead(ctx, leadID)
		if err != nil {
			return err
		}
		if err := s.store.DeleteLead(ctx, leadID); err != nil {
			if errors.Is(err, ErrRecordNotFound) {
				return errLeadNotFound
			}
			return fmt.Errorf("deleting lead: %w", err)
		}
		return s.normalizeStage(ctx, lead.Stage)
	})
	if err != nil {
		return err
	}

	s.emit(ctx, schemas.EVENT_LEAD_DELETED, lead.PipelineType, lead.ID.Hex(), nil, "Lead deleted")
	return nil
}

func (s *Service) GetLead(ctx context.Context, id string) (*schemas.PopulatedLead, error) {
	leadID, err := parseID(id, errInvalidLeadID)
	if err != nil {
		return nil, err
	}
	lead, err := s.getLead(ctx, leadID)
	if err != nil {
		return nil, err
	}
	return s.populateOne(ctx, lead), nil
}

// ListLeads returns the filtered leads of a pipeline, column by column in
// stage order and in board order inside each column.
func (s *Service) ListLeads(ctx context.Context, filter schemas.LeadFilter) ([]schemas.PopulatedLead, error) {
	pipelineType, err := s.pipelineType(filter.PipelineType)
	if err != nil {
		return nil, err
	}
	filter.PipelineType = pipelineType
	filter.Search = strings.TrimSpace(filter.Search)
	if filter.Stage != "" {
		if _, err := parseID(filter.Stage, errInvalidStageID); err != nil {
			return nil, err
		}
	}

	leads, err := s.store.FindLeads(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("finding leads: %w", err)
	}

	stages, err := s.store.ListActiveStages(ctx, pipelineType)
	if err != nil {
		return nil, fmt.Errorf("listing stages: %w", err)
	}
	stageOrder := make(map[bson.ObjectID]int, len(stages))
	for _, stage := range stages {
		stageOrder[stage.ID] = stage.Order
	}
	rank := func(id bson.ObjectID) int {
		if order, ok := stageOrder[id]; ok {
			return order
		}
		return len(stages)
	}

	slices.SortStableFunc(leads, func(a, b schemas.Lead) int {
		if ra, rb := rank(a.Stage), rank(b.Stage); ra != rb {
			return ra - rb
		}
		return ordering.Compare(a.OrderingEntry(), b.OrderingEntry())
	})

	return s.populate(ctx, leads), nil
}

func (s *Service) getLead(ctx context.Context, id bson.ObjectID) (*schemas.Lead, error) {
	lead, err := s.store.GetLead(ctx, id)
	if errors.Is(err, ErrRecordNotFound) {
		return nil, errLeadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting lead %s: %w", id.Hex(), err)
	}
	return lead, nil
}

func (s *Service) populateOne(ctx context.Context, lead *schemas.Lead) *schemas.PopulatedLead {
	populated := s.populate(ctx, []schemas.Lead{*lead})
	return &populated[0]
}

// populate resolves stage and user references. Unresolvable users are
// returned with their id only.
func (s *Service) populate(ctx context.Context, leads []schemas.Lead) []schemas.PopulatedLead {
	stages := map[bson.ObjectID]*schemas.Stage{}
	userIDs := []string{}
	for _, lead := range leads {
		if _, ok := stages[lead.Stage]; !ok {
			stage, err := s.store.GetStage(ctx, lead.Stage)
			if err != nil && !errors.Is(err, ErrRecordNotFound) {
				log.Printf("[Pipeline] cannot populate stage %s: %v", lead.Stage.Hex(), err)
			}
			stages[lead.Stage] = stage
		}
		userIDs = append(userIDs, lead.LeadOwner, lead.CreatedBy)
		userIDs = append(userIDs, lead.AssignedUsers...)
	}
	users := s.lookupUsers(ctx, compact(userIDs))

	user := func(id string) *schemas.User {
		if id == "" {
			return nil
		}
		if u, ok := users[id]; ok {
			return &u
		}
		return &schemas.User{ID: id}
	}

	out := make([]schemas.PopulatedLead, 0, len(leads))
	for _, lead := range leads {
		assigned := make([]schemas.User, 0, len(lead.AssignedUsers))
		for _, id := range lead.AssignedUsers {
			if u := user(id); u != nil {
				assigned = append(assigned, *u)
			}
		}
		out = append(out, schemas.PopulatedLead{
			Lead:          lead,
			Stage:         stages[lead.Stage],
			LeadOwner:     user(lead.LeadOwner),
			AssignedUsers: assigned,
			CreatedBy:     user(lead.CreatedBy),
		})
	}
	return out
}

func compact(ids []string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, id := range ids {
		if id != "" && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
