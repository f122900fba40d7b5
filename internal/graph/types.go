package graph

import "time"

// ============================================================================
// Graph Types
// ============================================================================

// ReactionKind names the two reaction relationship kinds. A (user, idea)
// pair holds at most one of them at any time.
type ReactionKind string

const (
	ReactionLike    ReactionKind = "LIKES"
	ReactionDislike ReactionKind = "DISLIKES"
)

// User represents a registered user
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
}

// Source represents an entity ideas are attributed to
type Source struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Idea is a url plus a short description. PosterID records the POSTED
// edge (always present), SourceID the AUTHORED edge (may be empty).
type Idea struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	PosterID    string    `json:"poster_id"`
	SourceID    string    `json:"source_id,omitempty"`
}

// Reaction is a LIKES or DISLIKES edge from a user to an idea.
// Agreement is meaningful only for likes, conventionally in [-3, 3].
type Reaction struct {
	UserID    string       `json:"user_id"`
	IdeaID    string       `json:"idea_id"`
	Kind      ReactionKind `json:"kind"`
	Agreement int          `json:"agreement,omitempty"`
}

// SearchResult is one ranked hit from the full-text index
type SearchResult struct {
	IdeaID      string  `json:"id"`
	URL         string  `json:"url"`
	Description string  `json:"description"`
	Score       float64 `json:"score"`
}

// IdeaView assembles an idea with its aggregate reaction statistics and,
// when a viewer is known, that viewer's own reaction.
type IdeaView struct {
	Idea           Idea           `json:"idea"`
	AllReactions   []ReactionKind `json:"all_reactions"`
	AllAgreement   []int          `json:"all_agreement"`
	ViewerReaction *Reaction      `json:"viewer_reaction,omitempty"`
}
