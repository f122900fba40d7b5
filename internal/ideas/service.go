// Package ideas wraps the graph store's idea operations with
// authorization and the reaction state machine. A (user, idea) pair is
// in one of three states: no reaction, liked with an agreement value,
// or disliked. Liking or disliking moves the pair to that state from
// any other; there is no transition back to "no reaction".
package ideas

import (
	"context"

	"go.uber.org/zap"

	"github.com/Lactantius/agnosis-backend/internal/graph"
	"github.com/Lactantius/agnosis-backend/pkg/apperrors"
	"github.com/Lactantius/agnosis-backend/pkg/logger"
)

// Service implements the idea lifecycle and reaction manager
type Service struct {
	store  graph.Store
	logger *zap.Logger
}

// NewService creates an idea service over the given store
func NewService(store graph.Store) *Service {
	return &Service{
		store:  store,
		logger: logger.Get(),
	}
}

// Post creates an idea on behalf of an authenticated poster, optionally
// attributed to a source.
func (s *Service) Post(ctx context.Context, posterID, url, description, sourceID string) (*graph.Idea, error) {
	return s.store.CreateIdea(ctx, posterID, url, description, sourceID)
}

// Delete removes an idea. A non-admin requester must be the idea's
// poster; the ownership check happens here, never in the store. Returns
// the deleted idea's id so callers can confirm which record was
// removed.
func (s *Service) Delete(ctx context.Context, ideaID, requesterID string, isAdmin bool) (string, error) {
	idea, err := s.store.GetIdea(ctx, ideaID)
	if err != nil {
		return "", err
	}
	if idea == nil {
		return "", &apperrors.NotFoundError{Entity: "idea", ID: ideaID}
	}
	if !isAdmin && idea.PosterID != requesterID {
		return "", &apperrors.UnauthorizedError{UserID: requesterID, IdeaID: ideaID}
	}

	if err := s.store.DeleteIdea(ctx, ideaID); err != nil {
		return "", err
	}
	s.logger.Info("Idea deleted",
		zap.String("idea_id", ideaID),
		zap.String("requester_id", requesterID),
		zap.Bool("admin", isAdmin),
	)
	return ideaID, nil
}

// Like moves the (user, idea) pair to Liked(agreement), displacing a
// dislike if one exists. Repeating a like overwrites the agreement.
// Agreement is conventionally in [-3, 3]; callers validate the range.
func (s *Service) Like(ctx context.Context, userID, ideaID string, agreement int) (*graph.Reaction, error) {
	return s.store.UpsertReaction(ctx, userID, ideaID, graph.ReactionLike, agreement)
}

// Dislike moves the (user, idea) pair to Disliked, displacing a like if
// one exists. Repeating a dislike is a no-op.
func (s *Service) Dislike(ctx context.Context, userID, ideaID string) (*graph.Reaction, error) {
	return s.store.UpsertReaction(ctx, userID, ideaID, graph.ReactionDislike, 0)
}
