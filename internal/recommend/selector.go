package recommend

import (
	"context"
	"math/rand"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Lactantius/agnosis-backend/internal/graph"
	"github.com/Lactantius/agnosis-backend/pkg/apperrors"
	"github.com/Lactantius/agnosis-backend/pkg/logger"
)

const searchLimit = 25

// Selector answers recommendation queries by composing store reads with
// the similarity engine. All of its operations are read-only and safe
// to run concurrently with each other.
type Selector struct {
	store  graph.Store
	engine *Engine
	logger *zap.Logger
}

// NewSelector creates a selector over the given store and engine
func NewSelector(store graph.Store, engine *Engine) *Selector {
	return &Selector{
		store:  store,
		engine: engine,
		logger: logger.Get(),
	}
}

// RandomIdea picks uniformly over all ideas
func (s *Selector) RandomIdea(ctx context.Context) (*graph.Idea, error) {
	ideas, err := s.store.ListIdeas(ctx)
	if err != nil {
		return nil, err
	}
	if len(ideas) == 0 {
		return nil, apperrors.ErrEmptyGraph
	}
	idea := ideas[rand.Intn(len(ideas))]
	return &idea, nil
}

// RandomUnseenIdea picks uniformly over ideas with no edge at all from
// the given user.
func (s *Selector) RandomUnseenIdea(ctx context.Context, userID string) (*graph.Idea, error) {
	unseen, err := s.store.ListUnseenIdeas(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(unseen) == 0 {
		return nil, apperrors.ErrNoCandidates
	}
	idea := unseen[rand.Intn(len(unseen))]
	return &idea, nil
}

// PopularUnseenIdea returns the unseen idea with the most LIKES edges
// from any user, ties broken by lowest idea id.
func (s *Selector) PopularUnseenIdea(ctx context.Context, userID string) (*graph.Idea, error) {
	unseen, err := s.store.ListUnseenIdeas(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(unseen) == 0 {
		return nil, apperrors.ErrNoCandidates
	}

	likes, err := s.store.LikeCounts(ctx)
	if err != nil {
		return nil, err
	}

	// unseen is ordered by id, so a strict > keeps the lowest id on ties
	best := unseen[0]
	bestLikes := likes[best.ID]
	for _, idea := range unseen[1:] {
		if likes[idea.ID] > bestLikes {
			best = idea
			bestLikes = likes[idea.ID]
		}
	}
	return &best, nil
}

// AgreeableIdea returns the candidate idea maximizing the similarity
// score, with the score it earned.
func (s *Selector) AgreeableIdea(ctx context.Context, userID string) (*graph.Idea, float64, error) {
	return s.scoredIdea(ctx, userID, func(candidate, best IdeaScore) bool {
		return candidate.Score > best.Score
	})
}

// DisagreeableIdea returns the candidate idea minimizing the similarity
// score, with the score it earned.
func (s *Selector) DisagreeableIdea(ctx context.Context, userID string) (*graph.Idea, float64, error) {
	return s.scoredIdea(ctx, userID, func(candidate, best IdeaScore) bool {
		return candidate.Score < best.Score
	})
}

func (s *Selector) scoredIdea(ctx context.Context, userID string, better func(candidate, best IdeaScore) bool) (*graph.Idea, float64, error) {
	scores, err := s.similarityScores(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	if len(scores) == 0 {
		return nil, 0, apperrors.ErrNoCandidates
	}

	// scores are ordered by idea id, so a strict comparison keeps the
	// lowest id on ties
	best := scores[0]
	for _, candidate := range scores[1:] {
		if better(candidate, best) {
			best = candidate
		}
	}

	idea, err := s.store.GetIdea(ctx, best.IdeaID)
	if err != nil {
		return nil, 0, err
	}
	if idea == nil {
		return nil, 0, apperrors.ErrNoCandidates
	}
	return idea, best.Score, nil
}

// similarityScores gathers the reaction neighborhood of a user and runs
// the engine over it: the user's own reactions, then the complete
// reaction lists of every user sharing at least one reacted idea.
func (s *Selector) similarityScores(ctx context.Context, userID string) ([]IdeaScore, error) {
	own, err := s.store.ListUserReactions(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(own) == 0 {
		return nil, nil
	}

	ideaIDs := make([]string, 0, len(own))
	for _, r := range own {
		ideaIDs = append(ideaIDs, r.IdeaID)
	}

	coReactions, err := s.store.ListReactionsToIdeas(ctx, ideaIDs)
	if err != nil {
		return nil, err
	}

	otherSet := make(map[string]struct{})
	for _, r := range coReactions {
		if r.UserID != userID {
			otherSet[r.UserID] = struct{}{}
		}
	}
	if len(otherSet) == 0 {
		return nil, nil
	}
	otherIDs := make([]string, 0, len(otherSet))
	for id := range otherSet {
		otherIDs = append(otherIDs, id)
	}

	others, err := s.store.ListUsersReactions(ctx, otherIDs)
	if err != nil {
		return nil, err
	}

	scores := s.engine.Recommendations(userID, own, others)
	s.logger.Debug("Similarity scores computed",
		zap.String("user_id", userID),
		zap.Int("neighbors", len(otherIDs)),
		zap.Int("candidates", len(scores)),
	)
	return scores, nil
}

// Search forwards a keyword query to the full-text index
func (s *Selector) Search(ctx context.Context, text string) ([]graph.SearchResult, error) {
	return s.store.SearchIdeas(ctx, text, searchLimit)
}

// IdeaDetails assembles an idea with its aggregate reaction statistics
// and, when viewerID is non-empty, that viewer's own reaction. The two
// store reads run concurrently.
func (s *Selector) IdeaDetails(ctx context.Context, ideaID, viewerID string) (*graph.IdeaView, error) {
	var (
		idea      *graph.Idea
		reactions []graph.Reaction
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		idea, err = s.store.GetIdea(gctx, ideaID)
		return err
	})
	g.Go(func() error {
		var err error
		reactions, err = s.store.ListIdeaReactions(gctx, ideaID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if idea == nil {
		return nil, &apperrors.NotFoundError{Entity: "idea", ID: ideaID}
	}

	view := &graph.IdeaView{
		Idea:         *idea,
		AllReactions: make([]graph.ReactionKind, 0, len(reactions)),
		AllAgreement: make([]int, 0, len(reactions)),
	}
	for _, r := range reactions {
		view.AllReactions = append(view.AllReactions, r.Kind)
		if r.Kind == graph.ReactionLike {
			view.AllAgreement = append(view.AllAgreement, r.Agreement)
		}
		if viewerID != "" && r.UserID == viewerID {
			viewer := r
			view.ViewerReaction = &viewer
		}
	}
	return view, nil
}
