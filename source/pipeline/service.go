// Package pipeline implements the CRM pipeline: stage management, lead
// lifecycle and the move/reorder protocol that keeps stage orders and lead
// positions dense.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"worklogz/source/schemas"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type Service struct {
	store   Store
	catalog Catalog
	users   UserDirectory
	events  Emitter
	now     func() time.Time
}

// NewService wires the pipeline service. users and events may be nil.
func NewService(store Store, catalog Catalog, users UserDirectory, events Emitter) *Service {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Service{
		store:   store,
		catalog: catalog,
		users:   users,
		events:  events,
		now:     time.Now,
	}
}

// SetClock replaces the time source; used by tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Service) Catalog() Catalog {
	return s.catalog
}

func (s *Service) pipelineType(pipelineType string) (string, error) {
	pipelineType = strings.TrimSpace(pipelineType)
	if pipelineType == "" {
		pipelineType = schemas.PIPELINE_TYPE_COURSE
	}
	if !s.catalog.Has(pipelineType) {
		return "", errUnknownPipeline
	}
	return pipelineType, nil
}

func parseID(hex string, invalid error) (bson.ObjectID, error) {
	id, err := bson.ObjectIDFromHex(strings.TrimSpace(hex))
	if err != nil {
		return bson.ObjectID{}, invalid
	}
	return id, nil
}

// activeStage loads a stage that must exist and not be archived.
func (s *Service) activeStage(ctx context.Context, id bson.ObjectID) (*schemas.Stage, error) {
	stage, err := s.store.GetStage(ctx, id)
	if errors.Is(err, ErrRecordNotFound) {
		return nil, errStageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting stage %s: %w", id.Hex(), err)
	}
	if stage.IsArchived {
		return nil, errStageNotFound
	}
	return stage, nil
}

func (s *Service) emit(ctx context.Context, action, pipelineType, entityID string, payload any, details string) {
	if s.events == nil {
		return
	}
	s.events.Emit(ctx, schemas.PipelineEvent{
		Action:       action,
		PipelineType: pipelineType,
		EntityID:     entityID,
		Payload:      payload,
		Details:      details,
		OccurredAt:   s.now(),
	})
}

func (s *Service) lookupUsers(ctx context.Context, ids []string) map[string]schemas.User {
	found := map[string]schemas.User{}
	if s.users == nil || len(ids) == 0 {
		return found
	}
	users, err := s.users.Lookup(ctx, ids)
	if err != nil {
		log.Printf("[Pipeline] user directory lookup failed: %v", err)
		return found
	}
	return users
}
