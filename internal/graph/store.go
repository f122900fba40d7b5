package graph

import "context"

// Store is the single owner of all nodes and edges. Every mutating
// operation runs as one atomic transaction; pure reads return nil or an
// empty slice on absence and never error for "not found".
//
// Two implementations exist: MemoryStore, an isolated in-process graph
// used by tests and no-infra development, and Repository, backed by
// Neo4j.
type Store interface {
	// CreateUser fails with a ConstraintError when email or username is
	// already taken, leaving no partial state behind.
	CreateUser(ctx context.Context, email, username, passwordHash string) (*User, error)

	// UpdateUser rewrites a user's mutable fields, subject to the same
	// uniqueness constraints as CreateUser.
	UpdateUser(ctx context.Context, id, email, username, passwordHash string) (*User, error)

	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// CreateSource fails with a ConstraintError when the name is taken.
	CreateSource(ctx context.Context, name string) (*Source, error)
	GetSource(ctx context.Context, id string) (*Source, error)

	// CreateIdea assigns id and createdAt and writes the POSTED edge
	// plus, when sourceID is non-empty, the AUTHORED edge in the same
	// transaction. Fails with NotFoundError when the poster or source
	// does not exist.
	CreateIdea(ctx context.Context, posterID, url, description, sourceID string) (*Idea, error)

	// DeleteIdea removes the idea node and every edge touching it.
	// Ownership checks live in the lifecycle layer, not here.
	DeleteIdea(ctx context.Context, ideaID string) error

	GetIdea(ctx context.Context, ideaID string) (*Idea, error)
	ListIdeas(ctx context.Context) ([]Idea, error)

	// ListUnseenIdeas returns ideas with no POSTED, LIKES, or DISLIKES
	// edge from the given user.
	ListUnseenIdeas(ctx context.Context, userID string) ([]Idea, error)

	// LikeCounts returns the number of LIKES edges per idea id. Ideas
	// with no likes are absent from the map.
	LikeCounts(ctx context.Context) (map[string]int, error)

	// UpsertReaction writes a reaction, removing any counterpart
	// reaction for the pair inside the same transaction. Repeating a
	// like overwrites the stored agreement; repeating a dislike is a
	// no-op. Fails with NotFoundError when user or idea is missing.
	UpsertReaction(ctx context.Context, userID, ideaID string, kind ReactionKind, agreement int) (*Reaction, error)

	GetReaction(ctx context.Context, userID, ideaID string) (*Reaction, error)
	ListUserReactions(ctx context.Context, userID string) ([]Reaction, error)
	ListIdeaReactions(ctx context.Context, ideaID string) ([]Reaction, error)

	// ListReactionsToIdeas returns every reaction, from any user, to any
	// of the given ideas.
	ListReactionsToIdeas(ctx context.Context, ideaIDs []string) ([]Reaction, error)

	// ListUsersReactions returns every reaction held by any of the given
	// users.
	ListUsersReactions(ctx context.Context, userIDs []string) ([]Reaction, error)

	// SearchIdeas forwards a keyword query to the full-text index and
	// reshapes the ranked hits.
	SearchIdeas(ctx context.Context, text string, limit int) ([]SearchResult, error)
}
