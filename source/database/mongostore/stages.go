package mongostore

import (
	"context"

	"worklogz/source/pipeline"
	"worklogz/source/schemas"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

func (s *Store) ListActiveStages(ctx context.Context, pipelineType string) ([]schemas.Stage, error) {
	filter := bson.D{
		{Key: "pipeline_type", Value: pipelineType},
		{Key: "is_archived", Value: false},
	}
	findOptions := options.Find().SetSort(bson.D{
		{Key: "order", Value: 1},
		{Key: "created_at", Value: 1},
		{Key: "_id", Value: 1},
	})

	cursor, err := s.stages.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	stages := []schemas.Stage{}
	if err := cursor.All(ctx, &stages); err != nil {
		return nil, err
	}
	return stages, nil
}

func (s *Store) GetStage(ctx context.Context, id bson.ObjectID) (*schemas.Stage, error) {
	stage := &schemas.Stage{}
	err := s.stages.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(stage)
	if err != nil {
		return nil, translate(err)
	}
	return stage, nil
}

func (s *Store) InsertStage(ctx context.Context, stage *schemas.Stage) error {
	if stage.ID.IsZero() {
		stage.ID = bson.NewObjectID()
	}
	_, err := s.stages.InsertOne(ctx, stage)
	return translate(err)
}

func (s *Store) ReplaceStage(ctx context.Context, stage *schemas.Stage) error {
	result, err := s.stages.ReplaceOne(ctx, bson.D{{Key: "_id", Value: stage.ID}}, stage)
	if err != nil {
		return translate(err)
	}
	if result.MatchedCount == 0 {
		return pipeline.ErrRecordNotFound
	}
	return nil
}

func (s *Store) SetStageOrder(ctx context.Context, id bson.ObjectID, order int) error {
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "order", Value: order}}}}
	result, err := s.stages.UpdateOne(ctx, bson.D{{Key: "_id", Value: id}}, update)
	if err != nil {
		return translate(err)
	}
	if result.MatchedCount == 0 {
		return pipeline.ErrRecordNotFound
	}
	return nil
}

func (s *Store) LockStageColumn(ctx context.Context, id bson.ObjectID) error {
	update := bson.D{{Key: "$inc", Value: bson.D{{Key: "column_version", Value: 1}}}}
	result, err := s.stages.UpdateOne(ctx, bson.D{{Key: "_id", Value: id}}, update)
	if err != nil {
		return translate(err)
	}
	if result.MatchedCount == 0 {
		return pipeline.ErrRecordNotFound
	}
	return nil
}

func (s *Store) DeleteStage(ctx context.Context, id bson.ObjectID) error {
	result, err := s.stages.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return translate(err)
	}
	if result.DeletedCount == 0 {
		return pipeline.ErrRecordNotFound
	}
	return nil
}
