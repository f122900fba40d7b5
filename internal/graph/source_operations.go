package graph

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// ============================================================================
// Source Operations
// ============================================================================

// CreateSource creates a source node. The unique_source_name constraint
// rejects duplicate names.
func (r *Repository) CreateSource(ctx context.Context, name string) (*Source, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		CREATE (s:Source {id: $id, name: $name})
		RETURN s.id as id, s.name as name
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"id":   uuid.NewString(),
		"name": name,
	})
	if err != nil {
		if ce, ok := asConstraintError(err); ok {
			return nil, ce
		}
		return nil, fmt.Errorf("failed to create source: %w", err)
	}

	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			if ce, ok := asConstraintError(err); ok {
				return nil, ce
			}
			return nil, fmt.Errorf("failed to create source: %w", err)
		}
		return nil, fmt.Errorf("failed to create source: no record returned")
	}

	record := result.Record()
	source := &Source{
		ID:   getStringFromRecord(record, "id"),
		Name: getStringFromRecord(record, "name"),
	}
	r.logger.Info("Source created", zap.String("source_id", source.ID), zap.String("name", name))
	return source, nil
}

// GetSource returns nil when no source has the given id
func (r *Repository) GetSource(ctx context.Context, id string) (*Source, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `
		MATCH (s:Source {id: $id})
		RETURN s.id as id, s.name as name
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"id": id,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find source: %w", err)
	}

	if result.Next(ctx) {
		record := result.Record()
		return &Source{
			ID:   getStringFromRecord(record, "id"),
			Name: getStringFromRecord(record, "name"),
		}, nil
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("failed to find source: %w", err)
	}
	return nil, nil
}
