// Package memstore keeps pipeline stages and leads in process memory. It
// backs STORAGE_DRIVER=memory and the test suites. Pipeline transactions are
// serialized and rolled back on error.
package memstore

import (
	"context"
	"slices"
	"strings"
	"sync"

	"worklogz/source/pipeline"
	"worklogz/source/schemas"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type Store struct {
	txMu   sync.Mutex
	mu     sync.RWMutex
	stages map[bson.ObjectID]schemas.Stage
	leads  map[bson.ObjectID]schemas.Lead
}

var _ pipeline.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		stages: map[bson.ObjectID]schemas.Stage{},
		leads:  map[bson.ObjectID]schemas.Lead{},
	}
}

type txKey struct{}

// RunInTransaction runs fn while holding the transaction lock. Nested calls
// run inline. On error every write made by fn is discarded.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	stages := cloneMap(s.stages)
	leads := cloneMap(s.leads)
	s.mu.RUnlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.mu.Lock()
		s.stages = stages
		s.leads = leads
		s.mu.Unlock()
		return err
	}
	return nil
}

// exclusive keeps writes made outside a pipeline transaction from
// interleaving with one that may still roll back.
func (s *Store) exclusive(ctx context.Context) func() {
	if ctx.Value(txKey{}) != nil {
		return func() {}
	}
	s.txMu.Lock()
	return s.txMu.Unlock
}

func (s *Store) ListActiveStages(ctx context.Context, pipelineType string) ([]schemas.Stage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stages := []schemas.Stage{}
	for _, stage := range s.stages {
		if stage.PipelineType == pipelineType && !stage.IsArchived {
			stages = append(stages, stage)
		}
	}
	slices.SortFunc(stages, func(a, b schemas.Stage) int {
		if a.Order != b.Order {
			return a.Order - b.Order
		}
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID.Hex(), b.ID.Hex())
	})
	return stages, nil
}

func (s *Store) GetStage(ctx context.Context, id bson.ObjectID) (*schemas.Stage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stage, ok := s.stages[id]
	if !ok {
		return nil, pipeline.ErrRecordNotFound
	}
	return &stage, nil
}

func (s *Store) InsertStage(ctx context.Context, stage *schemas.Stage) error {
	defer s.exclusive(ctx)()
	s.mu.Lock()
	defer s.mu.Unlock()

	if stage.ID.IsZero() {
		stage.ID = bson.NewObjectID()
	}
	if s.stageNameTaken(*stage) {
		return pipeline.ErrDuplicateKey
	}
	if _, exists := s.stages[stage.ID]; exists {
		return pipeline.ErrDuplicateKey
	}
	s.stages[stage.ID] = *stage
	return nil
}

func (s *Store) ReplaceStage(ctx context.Context, stage *schemas.Stage) error {
	defer s.exclusive(ctx)()
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.stages[stage.ID]; !ok {
		return pipeline.ErrRecordNotFound
	}
	if s.stageNameTaken(*stage) {
		return pipeline.ErrDuplicateKey
	}
	s.stages[stage.ID] = *stage
	return nil
}

func (s *Store) SetStageOrder(ctx context.Context, id bson.ObjectID, order int) error {
	defer s.exclusive(ctx)()
	s.mu.Lock()
	defer s.mu.Unlock()

	stage, ok := s.stages[id]
	if !ok {
		return pipeline.ErrRecordNotFound
	}
	stage.Order = order
	s.stages[id] = stage
	return nil
}

func (s *Store) LockStageColumn(ctx context.Context, id bson.ObjectID) error {
	defer s.exclusive(ctx)()
	s.mu.Lock()
	defer s.mu.Unlock()

	stage, ok := s.stages[id]
	if !ok {
		return pipeline.ErrRecordNotFound
	}
	stage.ColumnVersion++
	s.stages[id] = stage
	return nil
}

func (s *Store) DeleteStage(ctx context.Context, id bson.ObjectID) error {
	defer s.exclusive(ctx)()
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.stages[id]; !ok {
		return pipeline.ErrRecordNotFound
	}
	delete(s.stages, id)
	return nil
}

// stageNameTaken mirrors the partial unique index on active stage names.
func (s *Store) stageNameTaken(candidate schemas.Stage) bool {
	if candidate.IsArchived {
		return false
	}
	for id, stage := range s.stages {
		if id != candidate.ID && !stage.IsArchived &&
			stage.PipelineType == candidate.PipelineType && stage.Name == candidate.Name {
			return true
		}
	}
	return false
}

func (s *Store) GetLead(ctx context.Context, id bson.ObjectID) (*schemas.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lead, ok := s.leads[id]
	if !ok {
		return nil, pipeline.ErrRecordNotFound
	}
	lead = cloneLead(lead)
	return &lead, nil
}

func (s *Store) InsertLead(ctx context.Context, lead *schemas.Lead) error {
	defer s.exclusive(ctx)()
	s.mu.Lock()
	defer s.mu.Unlock()

	if lead.ID.IsZero() {
		lead.ID = bson.NewObjectID()
	}
	if _, exists := s.leads[lead.ID]; exists {
		return pipeline.ErrDuplicateKey
	}
	for _, other := range s.leads {
		if other.LeadCode == lead.LeadCode {
			return pipeline.ErrDuplicateKey
		}
	}
	s.leads[lead.ID] = cloneLead(*lead)
	return nil
}

func (s *Store) ReplaceLead(ctx context.Context, lead *schemas.Lead) error {
	defer s.exclusive(ctx)()
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.leads[lead.ID]; !ok {
		return pipeline.ErrRecordNotFound
	}
	for id, other := range s.leads {
		if id != lead.ID && other.LeadCode == lead.LeadCode {
			return pipeline.ErrDuplicateKey
		}
	}
	s.leads[lead.ID] = cloneLead(*lead)
	return nil
}

func (s *Store) SetLeadPosition(ctx context.Context, id bson.ObjectID, position int) error {
	defer s.exclusive(ctx)()
	s.mu.Lock()
	defer s.mu.Unlock()

	lead, ok := s.leads[id]
	if !ok {
		return pipeline.ErrRecordNotFound
	}
	lead.StagePosition = &position
	s.leads[id] = lead
	return nil
}

func (s *Store) DeleteLead(ctx context.Context, id bson.ObjectID) error {
	defer s.exclusive(ctx)()
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.leads[id]; !ok {
		return pipeline.ErrRecordNotFound
	}
	delete(s.leads, id)
	return nil
}

func (s *Store) ListStageLeads(ctx context.Context, stageID bson.ObjectID) ([]schemas.Lead, error) {
	return s.collect(func(lead schemas.Lead) bool { return lead.Stage == stageID }), nil
}

func (s *Store) CountStageLeads(ctx context.Context, stageID bson.ObjectID) (int, error) {
	return len(s.collect(func(lead schemas.Lead) bool { return lead.Stage == stageID })), nil
}

func (s *Store) CountPipelineLeads(ctx context.Context, pipelineType string) (int, error) {
	return len(s.collect(func(lead schemas.Lead) bool { return lead.PipelineType == pipelineType })), nil
}

func (s *Store) LeadCodeExists(ctx context.Context, code string) (bool, error) {
	return len(s.collect(func(lead schemas.Lead) bool { return lead.LeadCode == code })) > 0, nil
}

func (s *Store) FindLeads(ctx context.Context, filter schemas.LeadFilter) ([]schemas.Lead, error) {
	search := strings.ToLower(filter.Search)
	return s.collect(func(lead schemas.Lead) bool {
		if lead.PipelineType != filter.PipelineType {
			return false
		}
		if filter.Stage != "" && lead.Stage.Hex() != filter.Stage {
			return false
		}
		if filter.Course != "" && lead.Course != filter.Course {
			return false
		}
		if filter.Source != "" && lead.Source != filter.Source {
			return false
		}
		if filter.Status != "" && lead.Status != filter.Status {
			return false
		}
		if search == "" {
			return true
		}
		for _, field := range []string{lead.FullName, lead.Phone, lead.Email, lead.LeadCode} {
			if strings.Contains(strings.ToLower(field), search) {
				return true
			}
		}
		return false
	}), nil
}

func (s *Store) collect(match func(schemas.Lead) bool) []schemas.Lead {
	s.mu.RLock()
	defer s.mu.RUnlock()

	leads := []schemas.Lead{}
	for _, lead := range s.leads {
		if match(lead) {
			leads = append(leads, cloneLead(lead))
		}
	}
	slices.SortFunc(leads, func(a, b schemas.Lead) int {
		return strings.Compare(a.ID.Hex(), b.ID.Hex())
	})
	return leads
}

func cloneLead(lead schemas.Lead) schemas.Lead {
	if lead.StagePosition != nil {
		position := *lead.StagePosition
		lead.StagePosition = &position
	}
	lead.AssignedUsers = slices.Clone(lead.AssignedUsers)
	lead.StageHistory = slices.Clone(lead.StageHistory)
	return lead
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
