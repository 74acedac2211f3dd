package pipeline

import (
	"context"
	"fmt"
)

const (
	leadCodeAttempts   = 5
	leadInsertAttempts = 10
)

// GenerateLeadCode proposes the next free code of a pipeline, e.g. CC-007.
// After leadCodeAttempts taken candidates it falls back to a timestamp code.
func (s *Service) GenerateLeadCode(ctx context.Context, pipelineType string) (string, error) {
	prefix := s.catalog.Prefix(pipelineType)

	count, err := s.store.CountPipelineLeads(ctx, pipelineType)
	if err != nil {
		return "", fmt.Errorf("counting pipeline leads: %w", err)
	}

	for attempt := 0; attempt < leadCodeAttempts; attempt++ {
		candidate := fmt.Sprintf("%s-%03d", prefix, count+1+attempt)
		exists, err := s.store.LeadCodeExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("checking lead code: %w", err)
		}
		if !exists {
			return candidate, nil
		}
	}

	return fmt.Sprintf("%s-%d", prefix, s.now().UnixMilli()), nil
}
