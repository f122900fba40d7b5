package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/Lactantius/agnosis-backend/pkg/apperrors"
)

// ============================================================================
// Idea Operations
// ============================================================================

// CreateIdea creates an idea node together with its POSTED edge and,
// when sourceID is non-empty, its AUTHORED edge, all in one transaction.
func (r *Repository) CreateIdea(ctx context.Context, posterID, url, description, sourceID string) (*Idea, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	params := map[string]interface{}{
		"id":          uuid.NewString(),
		"posterID":    posterID,
		"url":         url,
		"description": description,
		"now":         time.Now().UTC().Format(time.RFC3339),
	}

	query := `
		MATCH (u:User {id: $posterID})
		CREATE (u)-[:POSTED]->(i:Idea {
			id: $id,
			url: $url,
			description: $description,
			createdAt: datetime($now)
		})
		RETURN i.id as id, i.url as url, i.description as description,
		       i.createdAt as created_at, u.id as poster_id, null as source_id
	`
	if sourceID != "" {
		params["sourceID"] = sourceID
		query = `
			MATCH (u:User {id: $posterID})
			MATCH (s:Source {id: $sourceID})
			CREATE (u)-[:POSTED]->(i:Idea {
				id: $id,
				url: $url,
				description: $description,
				createdAt: datetime($now)
			})<-[:AUTHORED]-(s)
			RETURN i.id as id, i.url as url, i.description as description,
			       i.createdAt as created_at, u.id as poster_id, s.id as source_id
		`
	}

	result, err := session.Run(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create idea: %w", err)
	}

	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return nil, fmt.Errorf("failed to create idea: %w", err)
		}
		// No row means a MATCH failed. Work out which.
		return nil, r.missingIdeaDependency(ctx, posterID, sourceID)
	}

	idea := ideaFromRecord(result.Record())
	r.logger.Info("Idea created", zap.String("idea_id", idea.ID), zap.String("poster_id", posterID))
	return idea, nil
}

// missingIdeaDependency classifies which referenced node a failed
// CreateIdea was missing.
func (r *Repository) missingIdeaDependency(ctx context.Context, posterID, sourceID string) error {
	user, err := r.GetUserByID(ctx, posterID)
	if err != nil {
		return err
	}
	if user == nil {
		return &apperrors.NotFoundError{Entity: "user", ID: posterID}
	}
	if sourceID != "" {
		source, err := r.GetSource(ctx, sourceID)
		if err != nil {
			return err
		}
		if source == nil {
			return &apperrors.NotFoundError{Entity: "source", ID: sourceID}
		}
	}
	return fmt.Errorf("failed to create idea: no record returned")
}

// DeleteIdea removes the idea node and every incident edge
func (r *Repository) DeleteIdea(ctx context.Context, ideaID string) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		MATCH (i:Idea {id: $id})
		WITH i, i.id as id
		DETACH DELETE i
		RETURN id
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"id": ideaID,
	})
	if err != nil {
		return fmt.Errorf("failed to delete idea: %w", err)
	}

	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return fmt.Errorf("failed to delete idea: %w", err)
		}
		return &apperrors.NotFoundError{Entity: "idea", ID: ideaID}
	}

	r.logger.Info("Idea deleted", zap.String("idea_id", ideaID))
	return nil
}

// GetIdea returns nil when no idea has the given id
func (r *Repository) GetIdea(ctx context.Context, ideaID string) (*Idea, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `
		MATCH (i:Idea {id: $id})
		OPTIONAL MATCH (u:User)-[:POSTED]->(i)
		OPTIONAL MATCH (s:Source)-[:AUTHORED]->(i)
		RETURN i.id as id, i.url as url, i.description as description,
		       i.createdAt as created_at, u.id as poster_id, s.id as source_id
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"id": ideaID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find idea: %w", err)
	}

	if result.Next(ctx) {
		return ideaFromRecord(result.Record()), nil
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("failed to find idea: %w", err)
	}
	return nil, nil
}

// ListIdeas returns every idea, ordered by id for determinism
func (r *Repository) ListIdeas(ctx context.Context) ([]Idea, error) {
	query := `
		MATCH (i:Idea)
		OPTIONAL MATCH (u:User)-[:POSTED]->(i)
		OPTIONAL MATCH (s:Source)-[:AUTHORED]->(i)
		RETURN i.id as id, i.url as url, i.description as description,
		       i.createdAt as created_at, u.id as poster_id, s.id as source_id
		ORDER BY i.id
	`
	return r.listIdeas(ctx, query, nil)
}

// ListUnseenIdeas returns ideas with no POSTED, LIKES, or DISLIKES edge
// from the given user, ordered by id.
func (r *Repository) ListUnseenIdeas(ctx context.Context, userID string) ([]Idea, error) {
	query := `
		MATCH (i:Idea)
		WHERE NOT EXISTS {
			MATCH (:User {id: $userID})-[:POSTED|LIKES|DISLIKES]->(i)
		}
		OPTIONAL MATCH (u:User)-[:POSTED]->(i)
		OPTIONAL MATCH (s:Source)-[:AUTHORED]->(i)
		RETURN i.id as id, i.url as url, i.description as description,
		       i.createdAt as created_at, u.id as poster_id, s.id as source_id
		ORDER BY i.id
	`
	return r.listIdeas(ctx, query, map[string]interface{}{"userID": userID})
}

func (r *Repository) listIdeas(ctx context.Context, query string, params map[string]interface{}) ([]Idea, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list ideas: %w", err)
	}

	var ideas []Idea
	for result.Next(ctx) {
		ideas = append(ideas, *ideaFromRecord(result.Record()))
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("failed to list ideas: %w", err)
	}
	return ideas, nil
}

// LikeCounts returns the number of LIKES edges per idea id
func (r *Repository) LikeCounts(ctx context.Context) (map[string]int, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `
		MATCH (:User)-[l:LIKES]->(i:Idea)
		RETURN i.id as id, count(l) as likes
	`

	result, err := session.Run(ctx, query, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to count likes: %w", err)
	}

	counts := make(map[string]int)
	for result.Next(ctx) {
		record := result.Record()
		counts[getStringFromRecord(record, "id")] = getIntFromRecord(record, "likes")
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("failed to count likes: %w", err)
	}
	return counts, nil
}
