// Package mongostore persists pipeline stages and leads in MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"

	"worklogz/source/database"
	"worklogz/source/pipeline"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Mongo error code for operations a standalone server refuses, such as
// starting a transaction.
const codeIllegalOperation = 20

type Store struct {
	client       *mongo.Client
	stages       *mongo.Collection
	leads        *mongo.Collection
	transactions atomic.Bool
}

var _ pipeline.Store = (*Store)(nil)

// New binds the store to dbName. With transactions enabled, pipeline
// transactions run as multi-document transactions until the server reports
// it cannot run them.
func New(client *mongo.Client, dbName string, transactions bool) *Store {
	db := client.Database(dbName)
	s := &Store{
		client: client,
		stages: db.Collection(database.COLLECTION_STAGES),
		leads:  db.Collection(database.COLLECTION_LEADS),
	}
	s.transactions.Store(transactions)
	return s
}

// EnsureIndexes creates the unique and lookup indexes the pipeline relies on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.stages.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "pipeline_type", Value: 1}, {Key: "name", Value: 1}},
			Options: options.Index().
				SetName("uniq_active_stage_name").
				SetUnique(true).
				SetPartialFilterExpression(bson.D{{Key: "is_archived", Value: false}}),
		},
		{
			Keys: bson.D{{Key: "pipeline_type", Value: 1}, {Key: "is_archived", Value: 1}, {Key: "order", Value: 1}},
		},
	})
	if err != nil {
		return fmt.Errorf("create stage indexes: %w", err)
	}

	_, err = s.leads.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "lead_code", Value: 1}},
			Options: options.Index().SetName("uniq_lead_code").SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "stage", Value: 1}, {Key: "stage_position", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "pipeline_type", Value: 1}, {Key: "created_at", Value: -1}},
		},
	})
	if err != nil {
		return fmt.Errorf("create lead indexes: %w", err)
	}
	return nil
}

// RunInTransaction runs fn inside a session transaction. Standalone servers
// cannot run transactions; there fn runs as sequential writes and later
// normalizations restore density if a step fails midway.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !s.transactions.Load() {
		return fn(ctx)
	}

	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(ctx context.Context) (any, error) {
		return nil, fn(ctx)
	})
	if err != nil && transactionsUnsupported(err) {
		log.Printf("[MongoDB] transactions unsupported by this deployment, falling back to sequential writes: %v", err)
		s.transactions.Store(false)
		return fn(ctx)
	}
	return err
}

func transactionsUnsupported(err error) bool {
	var serverErr mongo.ServerError
	return errors.As(err, &serverErr) && serverErr.HasErrorCode(codeIllegalOperation)
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return pipeline.ErrRecordNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", pipeline.ErrDuplicateKey, err)
	}
	return err
}
