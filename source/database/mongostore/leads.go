package mongostore

import (
	"context"
	"regexp"

	"worklogz/source/pipeline"
	"worklogz/source/schemas"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

func (s *Store) GetLead(ctx context.Context, id bson.ObjectID) (*schemas.Lead, error) {
	lead := &schemas.Lead{}
	err := s.leads.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(lead)
	if err != nil {
		return nil, translate(err)
	}
	return lead, nil
}

func (s *Store) InsertLead(ctx context.Context, lead *schemas.Lead) error {
	if lead.ID.IsZero() {
		lead.ID = bson.NewObjectID()
	}
	_, err := s.leads.InsertOne(ctx, lead)
	return translate(err)
}

// ReplaceLead writes the whole document; a pending position is stored as an
// absent stage_position field.
func (s *Store) ReplaceLead(ctx context.Context, lead *schemas.Lead) error {
	result, err := s.leads.ReplaceOne(ctx, bson.D{{Key: "_id", Value: lead.ID}}, lead)
	if err != nil {
		return translate(err)
	}
	if result.MatchedCount == 0 {
		return pipeline.ErrRecordNotFound
	}
	return nil
}

func (s *Store) SetLeadPosition(ctx context.Context, id bson.ObjectID, position int) error {
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "stage_position", Value: position}}}}
	result, err := s.leads.UpdateOne(ctx, bson.D{{Key: "_id", Value: id}}, update)
	if err != nil {
		return translate(err)
	}
	if result.MatchedCount == 0 {
		return pipeline.ErrRecordNotFound
	}
	return nil
}

func (s *Store) DeleteLead(ctx context.Context, id bson.ObjectID) error {
	result, err := s.leads.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return translate(err)
	}
	if result.DeletedCount == 0 {
		return pipeline.ErrRecordNotFound
	}
	return nil
}

func (s *Store) ListStageLeads(ctx context.Context, stageID bson.ObjectID) ([]schemas.Lead, error) {
	return s.find(ctx, bson.D{{Key: "stage", Value: stageID}})
}

func (s *Store) CountStageLeads(ctx context.Context, stageID bson.ObjectID) (int, error) {
	count, err := s.leads.CountDocuments(ctx, bson.D{{Key: "stage", Value: stageID}})
	return int(count), err
}

func (s *Store) CountPipelineLeads(ctx context.Context, pipelineType string) (int, error) {
	count, err := s.leads.CountDocuments(ctx, bson.D{{Key: "pipeline_type", Value: pipelineType}})
	return int(count), err
}

func (s *Store) LeadCodeExists(ctx context.Context, code string) (bool, error) {
	count, err := s.leads.CountDocuments(ctx, bson.D{{Key: "lead_code", Value: code}}, options.Count().SetLimit(1))
	return count > 0, err
}

func (s *Store) FindLeads(ctx context.Context, filter schemas.LeadFilter) ([]schemas.Lead, error) {
	return s.find(ctx, buildLeadFilter(filter))
}

func buildLeadFilter(filter schemas.LeadFilter) bson.D {
	query := bson.D{{Key: "pipeline_type", Value: filter.PipelineType}}

	if filter.Stage != "" {
		if stageID, err := bson.ObjectIDFromHex(filter.Stage); err == nil {
			query = append(query, bson.E{Key: "stage", Value: stageID})
		}
	}
	if filter.Course != "" {
		query = append(query, bson.E{Key: "course", Value: filter.Course})
	}
	if filter.Source != "" {
		query = append(query, bson.E{Key: "source", Value: filter.Source})
	}
	if filter.Status != "" {
		query = append(query, bson.E{Key: "status", Value: filter.Status})
	}
	if filter.Search != "" {
		pattern := bson.M{"$regex": regexp.QuoteMeta(filter.Search), "$options": "i"}
		query = append(query, bson.E{Key: "$or", Value: bson.A{
			bson.M{"full_name": pattern},
			bson.M{"phone": pattern},
			bson.M{"email": pattern},
			bson.M{"lead_code": pattern},
		}})
	}

	return query
}

func (s *Store) find(ctx context.Context, filter bson.D) ([]schemas.Lead, error) {
	cursor, err := s.leads.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	leads := []schemas.Lead{}
	if err := cursor.All(ctx, &leads); err != nil {
		return nil, err
	}
	return leads, nil
}
