package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// ============================================================================
// Search Operations
// ============================================================================

// SearchIdeas forwards a keyword query to the ideaText full-text index
// and reshapes the ranked hits. Matching and ranking are entirely the
// index's concern.
func (r *Repository) SearchIdeas(ctx context.Context, text string, limit int) ([]SearchResult, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	if limit < 1 {
		limit = 10
	}

	query := `
		CALL db.index.fulltext.queryNodes('ideaText', $query)
		YIELD node, score
		RETURN node.id as id, node.url as url, node.description as description, score
		ORDER BY score DESC, node.id
		LIMIT $limit
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"query": text,
		"limit": limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search ideas: %w", err)
	}

	var results []SearchResult
	for result.Next(ctx) {
		record := result.Record()
		results = append(results, SearchResult{
			IdeaID:      getStringFromRecord(record, "id"),
			URL:         getStringFromRecord(record, "url"),
			Description: getStringFromRecord(record, "description"),
			Score:       getFloat64FromRecord(record, "score"),
		})
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("failed to search ideas: %w", err)
	}
	return results, nil
}
