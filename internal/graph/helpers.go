package graph

import (
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// ============================================================================
// Record Helpers
// ============================================================================

func getStringFromRecord(record *neo4j.Record, key string) string {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return ""
	}
	if str, ok := val.(string); ok {
		return str
	}
	return ""
}

func getIntFromRecord(record *neo4j.Record, key string) int {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return 0
	}
	if i, ok := val.(int64); ok {
		return int(i)
	}
	if i, ok := val.(int); ok {
		return i
	}
	return 0
}

func getFloat64FromRecord(record *neo4j.Record, key string) float64 {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return 0.0
	}
	if f, ok := val.(float64); ok {
		return f
	}
	if i, ok := val.(int64); ok {
		return float64(i)
	}
	return 0.0
}

func getTimeFromRecord(record *neo4j.Record, key string) time.Time {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return time.Time{}
	}
	// Neo4j datetime values come back as time.Time
	if t, ok := val.(time.Time); ok {
		return t
	}
	return time.Time{}
}

func userFromRecord(record *neo4j.Record) *User {
	return &User{
		ID:           getStringFromRecord(record, "id"),
		Email:        getStringFromRecord(record, "email"),
		Username:     getStringFromRecord(record, "username"),
		PasswordHash: getStringFromRecord(record, "password"),
	}
}

func ideaFromRecord(record *neo4j.Record) *Idea {
	return &Idea{
		ID:          getStringFromRecord(record, "id"),
		URL:         getStringFromRecord(record, "url"),
		Description: getStringFromRecord(record, "description"),
		CreatedAt:   getTimeFromRecord(record, "created_at"),
		PosterID:    getStringFromRecord(record, "poster_id"),
		SourceID:    getStringFromRecord(record, "source_id"),
	}
}

func reactionFromRecord(record *neo4j.Record) Reaction {
	return Reaction{
		UserID:    getStringFromRecord(record, "user_id"),
		IdeaID:    getStringFromRecord(record, "idea_id"),
		Kind:      ReactionKind(getStringFromRecord(record, "kind")),
		Agreement: getIntFromRecord(record, "agreement"),
	}
}
