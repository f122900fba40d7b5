package graph

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Lactantius/agnosis-backend/pkg/apperrors"
)

// pairKey addresses the single reaction slot a (user, idea) pair may
// hold. Keying reactions by the pair makes the LIKES/DISLIKES
// exclusivity invariant structural rather than checked.
type pairKey struct {
	userID string
	ideaID string
}

// MemoryStore is an isolated in-process graph. Entities live in arenas
// keyed by UUID strings; adjacency is kept as index maps per
// relationship kind. A single RWMutex serializes writes against all
// other operations; reads run concurrently.
type MemoryStore struct {
	mu sync.RWMutex

	users           map[string]User
	usersByEmail    map[string]string
	usersByUsername map[string]string

	sources       map[string]Source
	sourcesByName map[string]string

	ideas map[string]Idea

	reactions map[pairKey]Reaction
	reactedBy map[string]map[string]struct{} // userID -> ideaIDs reacted to
	reactedTo map[string]map[string]struct{} // ideaID -> userIDs who reacted
	postedBy  map[string]map[string]struct{} // userID -> ideaIDs posted
}

// NewMemoryStore creates an empty in-memory graph
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:           make(map[string]User),
		usersByEmail:    make(map[string]string),
		usersByUsername: make(map[string]string),
		sources:         make(map[string]Source),
		sourcesByName:   make(map[string]string),
		ideas:           make(map[string]Idea),
		reactions:       make(map[pairKey]Reaction),
		reactedBy:       make(map[string]map[string]struct{}),
		reactedTo:       make(map[string]map[string]struct{}),
		postedBy:        make(map[string]map[string]struct{}),
	}
}

var _ Store = (*MemoryStore)(nil)

// ============================================================================
// Users
// ============================================================================

func (s *MemoryStore) CreateUser(_ context.Context, email, username, passwordHash string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.usersByEmail[email]; taken {
		return nil, &apperrors.ConstraintError{Field: "email"}
	}
	if _, taken := s.usersByUsername[username]; taken {
		return nil, &apperrors.ConstraintError{Field: "username"}
	}

	u := User{
		ID:           uuid.NewString(),
		Email:        email,
		Username:     username,
		PasswordHash: passwordHash,
	}
	s.users[u.ID] = u
	s.usersByEmail[email] = u.ID
	s.usersByUsername[username] = u.ID
	return &u, nil
}

func (s *MemoryStore) UpdateUser(_ context.Context, id, email, username, passwordHash string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, &apperrors.NotFoundError{Entity: "user", ID: id}
	}
	if other, taken := s.usersByEmail[email]; taken && other != id {
		return nil, &apperrors.ConstraintError{Field: "email"}
	}
	if other, taken := s.usersByUsername[username]; taken && other != id {
		return nil, &apperrors.ConstraintError{Field: "username"}
	}

	delete(s.usersByEmail, u.Email)
	delete(s.usersByUsername, u.Username)
	u.Email = email
	u.Username = username
	u.PasswordHash = passwordHash
	s.users[id] = u
	s.usersByEmail[email] = id
	s.usersByUsername[username] = id
	return &u, nil
}

func (s *MemoryStore) GetUserByID(_ context.Context, id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if u, ok := s.users[id]; ok {
		return &u, nil
	}
	return nil, nil
}

func (s *MemoryStore) GetUserByEmail(_ context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id, ok := s.usersByEmail[email]; ok {
		u := s.users[id]
		return &u, nil
	}
	return nil, nil
}

// ============================================================================
// Sources
// ============================================================================

func (s *MemoryStore) CreateSource(_ context.Context, name string) (*Source, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.sourcesByName[name]; taken {
		return nil, &apperrors.ConstraintError{Field: "name"}
	}

	src := Source{ID: uuid.NewString(), Name: name}
	s.sources[src.ID] = src
	s.sourcesByName[name] = src.ID
	return &src, nil
}

func (s *MemoryStore) GetSource(_ context.Context, id string) (*Source, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if src, ok := s.sources[id]; ok {
		return &src, nil
	}
	return nil, nil
}

// ============================================================================
// Ideas
// ============================================================================

func (s *MemoryStore) CreateIdea(_ context.Context, posterID, url, description, sourceID string) (*Idea, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[posterID]; !ok {
		return nil, &apperrors.NotFoundError{Entity: "user", ID: posterID}
	}
	if sourceID != "" {
		if _, ok := s.sources[sourceID]; !ok {
			return nil, &apperrors.NotFoundError{Entity: "source", ID: sourceID}
		}
	}

	idea := Idea{
		ID:          uuid.NewString(),
		URL:         url,
		Description: description,
		CreatedAt:   time.Now().UTC(),
		PosterID:    posterID,
		SourceID:    sourceID,
	}
	s.ideas[idea.ID] = idea
	if s.postedBy[posterID] == nil {
		s.postedBy[posterID] = make(map[string]struct{})
	}
	s.postedBy[posterID][idea.ID] = struct{}{}
	return &idea, nil
}

func (s *MemoryStore) DeleteIdea(_ context.Context, ideaID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idea, ok := s.ideas[ideaID]
	if !ok {
		return &apperrors.NotFoundError{Entity: "idea", ID: ideaID}
	}

	delete(s.ideas, ideaID)
	delete(s.postedBy[idea.PosterID], ideaID)
	for userID := range s.reactedTo[ideaID] {
		delete(s.reactions, pairKey{userID: userID, ideaID: ideaID})
		delete(s.reactedBy[userID], ideaID)
	}
	delete(s.reactedTo, ideaID)
	return nil
}

func (s *MemoryStore) GetIdea(_ context.Context, ideaID string) (*Idea, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if idea, ok := s.ideas[ideaID]; ok {
		return &idea, nil
	}
	return nil, nil
}

func (s *MemoryStore) ListIdeas(_ context.Context) ([]Idea, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ideas := make([]Idea, 0, len(s.ideas))
	for _, idea := range s.ideas {
		ideas = append(ideas, idea)
	}
	sort.Slice(ideas, func(i, j int) bool { return ideas[i].ID < ideas[j].ID })
	return ideas, nil
}

func (s *MemoryStore) ListUnseenIdeas(_ context.Context, userID string) ([]Idea, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var unseen []Idea
	for id, idea := range s.ideas {
		if _, posted := s.postedBy[userID][id]; posted {
			continue
		}
		if _, reacted := s.reactedBy[userID][id]; reacted {
			continue
		}
		unseen = append(unseen, idea)
	}
	sort.Slice(unseen, func(i, j int) bool { return unseen[i].ID < unseen[j].ID })
	return unseen, nil
}

func (s *MemoryStore) LikeCounts(_ context.Context) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for _, r := range s.reactions {
		if r.Kind == ReactionLike {
			counts[r.IdeaID]++
		}
	}
	return counts, nil
}

// ============================================================================
// Reactions
// ============================================================================

func (s *MemoryStore) UpsertReaction(_ context.Context, userID, ideaID string, kind ReactionKind, agreement int) (*Reaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return nil, &apperrors.NotFoundError{Entity: "user", ID: userID}
	}
	if _, ok := s.ideas[ideaID]; !ok {
		return nil, &apperrors.NotFoundError{Entity: "idea", ID: ideaID}
	}

	if kind == ReactionDislike {
		agreement = 0
	}
	r := Reaction{UserID: userID, IdeaID: ideaID, Kind: kind, Agreement: agreement}

	// One slot per pair: writing either kind displaces the other.
	s.reactions[pairKey{userID: userID, ideaID: ideaID}] = r
	if s.reactedBy[userID] == nil {
		s.reactedBy[userID] = make(map[string]struct{})
	}
	s.reactedBy[userID][ideaID] = struct{}{}
	if s.reactedTo[ideaID] == nil {
		s.reactedTo[ideaID] = make(map[string]struct{})
	}
	s.reactedTo[ideaID][userID] = struct{}{}
	return &r, nil
}

func (s *MemoryStore) GetReaction(_ context.Context, userID, ideaID string) (*Reaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if r, ok := s.reactions[pairKey{userID: userID, ideaID: ideaID}]; ok {
		return &r, nil
	}
	return nil, nil
}

func (s *MemoryStore) ListUserReactions(_ context.Context, userID string) ([]Reaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var reactions []Reaction
	for ideaID := range s.reactedBy[userID] {
		reactions = append(reactions, s.reactions[pairKey{userID: userID, ideaID: ideaID}])
	}
	sortReactions(reactions)
	return reactions, nil
}

func (s *MemoryStore) ListIdeaReactions(_ context.Context, ideaID string) ([]Reaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var reactions []Reaction
	for userID := range s.reactedTo[ideaID] {
		reactions = append(reactions, s.reactions[pairKey{userID: userID, ideaID: ideaID}])
	}
	sortReactions(reactions)
	return reactions, nil
}

func (s *MemoryStore) ListReactionsToIdeas(_ context.Context, ideaIDs []string) ([]Reaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var reactions []Reaction
	for _, ideaID := range ideaIDs {
		for userID := range s.reactedTo[ideaID] {
			reactions = append(reactions, s.reactions[pairKey{userID: userID, ideaID: ideaID}])
		}
	}
	sortReactions(reactions)
	return reactions, nil
}

func (s *MemoryStore) ListUsersReactions(_ context.Context, userIDs []string) ([]Reaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var reactions []Reaction
	for _, userID := range userIDs {
		for ideaID := range s.reactedBy[userID] {
			reactions = append(reactions, s.reactions[pairKey{userID: userID, ideaID: ideaID}])
		}
	}
	sortReactions(reactions)
	return reactions, nil
}

func sortReactions(reactions []Reaction) {
	sort.Slice(reactions, func(i, j int) bool {
		if reactions[i].UserID != reactions[j].UserID {
			return reactions[i].UserID < reactions[j].UserID
		}
		return reactions[i].IdeaID < reactions[j].IdeaID
	})
}

// ============================================================================
// Search
// ============================================================================

// SearchIdeas is a token-match stand-in for the external full-text
// index: score is the fraction of query tokens contained in the idea's
// url or description.
func (s *MemoryStore) SearchIdeas(_ context.Context, text string, limit int) ([]SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tokens := strings.Fields(strings.ToLower(text))
	if len(tokens) == 0 {
		return nil, nil
	}
	if limit < 1 {
		limit = 10
	}

	var results []SearchResult
	for _, idea := range s.ideas {
		haystack := strings.ToLower(idea.URL + " " + idea.Description)
		matched := 0
		for _, tok := range tokens {
			if strings.Contains(haystack, tok) {
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		results = append(results, SearchResult{
			IdeaID:      idea.ID,
			URL:         idea.URL,
			Description: idea.Description,
			Score:       float64(matched) / float64(len(tokens)),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].IdeaID < results[j].IdeaID
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}
