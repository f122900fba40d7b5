package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/Lactantius/agnosis-backend/pkg/apperrors"
)

// ============================================================================
// Reaction Operations
// ============================================================================

// UpsertReaction writes a LIKES or DISLIKES edge for the (user, idea)
// pair. The counterpart edge, if present, is deleted in the same
// transaction, so the pair never holds both.
func (r *Repository) UpsertReaction(ctx context.Context, userID, ideaID string, kind ReactionKind, agreement int) (*Reaction, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	params := map[string]interface{}{
		"userID": userID,
		"ideaID": ideaID,
	}

	var query string
	if kind == ReactionLike {
		params["agreement"] = agreement
		query = `
			MATCH (u:User {id: $userID})
			MATCH (i:Idea {id: $ideaID})
			OPTIONAL MATCH (u)-[d:DISLIKES]->(i)
			DELETE d
			MERGE (u)-[l:LIKES]->(i)
			SET l.agreement = $agreement
			RETURN u.id as user_id, i.id as idea_id, 'LIKES' as kind, l.agreement as agreement
		`
	} else {
		query = `
			MATCH (u:User {id: $userID})
			MATCH (i:Idea {id: $ideaID})
			OPTIONAL MATCH (u)-[l:LIKES]->(i)
			DELETE l
			MERGE (u)-[:DISLIKES]->(i)
			RETURN u.id as user_id, i.id as idea_id, 'DISLIKES' as kind, 0 as agreement
		`
	}

	result, err := session.Run(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert reaction: %w", err)
	}

	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return nil, fmt.Errorf("failed to upsert reaction: %w", err)
		}
		return nil, r.missingReactionDependency(ctx, userID, ideaID)
	}

	reaction := reactionFromRecord(result.Record())
	r.logger.Debug("Reaction upserted",
		zap.String("user_id", userID),
		zap.String("idea_id", ideaID),
		zap.String("kind", string(kind)),
	)
	return &reaction, nil
}

func (r *Repository) missingReactionDependency(ctx context.Context, userID, ideaID string) error {
	user, err := r.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return &apperrors.NotFoundError{Entity: "user", ID: userID}
	}
	idea, err := r.GetIdea(ctx, ideaID)
	if err != nil {
		return err
	}
	if idea == nil {
		return &apperrors.NotFoundError{Entity: "idea", ID: ideaID}
	}
	return fmt.Errorf("failed to upsert reaction: no record returned")
}

// GetReaction returns nil when the pair holds no reaction
func (r *Repository) GetReaction(ctx context.Context, userID, ideaID string) (*Reaction, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `
		MATCH (u:User {id: $userID})-[r:LIKES|DISLIKES]->(i:Idea {id: $ideaID})
		RETURN u.id as user_id, i.id as idea_id, type(r) as kind,
		       coalesce(r.agreement, 0) as agreement
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"userID": userID,
		"ideaID": ideaID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get reaction: %w", err)
	}

	if result.Next(ctx) {
		reaction := reactionFromRecord(result.Record())
		return &reaction, nil
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("failed to get reaction: %w", err)
	}
	return nil, nil
}

// ListUserReactions returns every reaction held by the given user
func (r *Repository) ListUserReactions(ctx context.Context, userID string) ([]Reaction, error) {
	query := `
		MATCH (u:User {id: $userID})-[r:LIKES|DISLIKES]->(i:Idea)
		RETURN u.id as user_id, i.id as idea_id, type(r) as kind,
		       coalesce(r.agreement, 0) as agreement
		ORDER BY u.id, i.id
	`
	return r.listReactions(ctx, query, map[string]interface{}{"userID": userID})
}

// ListIdeaReactions returns every reaction to the given idea
func (r *Repository) ListIdeaReactions(ctx context.Context, ideaID string) ([]Reaction, error) {
	query := `
		MATCH (u:User)-[r:LIKES|DISLIKES]->(i:Idea {id: $ideaID})
		RETURN u.id as user_id, i.id as idea_id, type(r) as kind,
		       coalesce(r.agreement, 0) as agreement
		ORDER BY u.id, i.id
	`
	return r.listReactions(ctx, query, map[string]interface{}{"ideaID": ideaID})
}

// ListReactionsToIdeas returns every reaction, from any user, to any of
// the given ideas.
func (r *Repository) ListReactionsToIdeas(ctx context.Context, ideaIDs []string) ([]Reaction, error) {
	query := `
		MATCH (u:User)-[r:LIKES|DISLIKES]->(i:Idea)
		WHERE i.id IN $ideaIDs
		RETURN u.id as user_id, i.id as idea_id, type(r) as kind,
		       coalesce(r.agreement, 0) as agreement
		ORDER BY u.id, i.id
	`
	return r.listReactions(ctx, query, map[string]interface{}{"ideaIDs": ideaIDs})
}

// ListUsersReactions returns every reaction held by any of the given
// users.
func (r *Repository) ListUsersReactions(ctx context.Context, userIDs []string) ([]Reaction, error) {
	query := `
		MATCH (u:User)-[r:LIKES|DISLIKES]->(i:Idea)
		WHERE u.id IN $userIDs
		RETURN u.id as user_id, i.id as idea_id, type(r) as kind,
		       coalesce(r.agreement, 0) as agreement
		ORDER BY u.id, i.id
	`
	return r.listReactions(ctx, query, map[string]interface{}{"userIDs": userIDs})
}

func (r *Repository) listReactions(ctx context.Context, query string, params map[string]interface{}) ([]Reaction, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list reactions: %w", err)
	}

	var reactions []Reaction
	for result.Next(ctx) {
		reactions = append(reactions, reactionFromRecord(result.Record()))
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("failed to list reactions: %w", err)
	}
	return reactions, nil
}
