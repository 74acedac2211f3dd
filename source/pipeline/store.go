package pipeline

import (
	"context"

	"worklogz/source/schemas"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type StageStore interface {
	// ListActiveStages returns non-archived stages ordered by order ascending.
	ListActiveStages(ctx context.Context, pipelineType string) ([]schemas.Stage, error)
	GetStage(ctx context.Context, id bson.ObjectID) (*schemas.Stage, error)
	InsertStage(ctx context.Context, stage *schemas.Stage) error
	ReplaceStage(ctx context.Context, stage *schemas.Stage) error
	SetStageOrder(ctx context.Context, id bson.ObjectID, order int) error
	// LockStageColumn writes to the stage so that concurrent pipeline
	// transactions changing the same column conflict instead of both
	// reading a stale count.
	LockStageColumn(ctx context.Context, id bson.ObjectID) error
	DeleteStage(ctx context.Context, id bson.ObjectID) error
}

type LeadStore interface {
	GetLead(ctx context.Context, id bson.ObjectID) (*schemas.Lead, error)
	InsertLead(ctx context.Context, lead *schemas.Lead) error
	ReplaceLead(ctx context.Context, lead *schemas.Lead) error
	SetLeadPosition(ctx context.Context, id bson.ObjectID, position int) error
	DeleteLead(ctx context.Context, id bson.ObjectID) error
	ListStageLeads(ctx context.Context, stageID bson.ObjectID) ([]schemas.Lead, error)
	CountStageLeads(ctx context.Context, stageID bson.ObjectID) (int, error)
	CountPipelineLeads(ctx context.Context, pipelineType string) (int, error)
	LeadCodeExists(ctx context.Context, code string) (bool, error)
	FindLeads(ctx context.Context, filter schemas.LeadFilter) ([]schemas.Lead, error)
}

// Store is the persistence the pipeline service runs on. RunInTransaction
// executes fn as one pipeline transaction: atomically where the backend
// supports it, otherwise as sequential best-effort writes.
type Store interface {
	StageStore
	LeadStore
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserDirectory resolves user references for populated responses.
type UserDirectory interface {
	Lookup(ctx context.Context, ids []string) (map[string]schemas.User, error)
}

// Emitter receives domain events after successful mutations.
type Emitter interface {
	Emit(ctx context.Context, event schemas.PipelineEvent)
}
