// Package recommend holds the collaborative-filtering core: pairwise
// user similarity via Pearson correlation over shared reactions, and
// the selectors that turn similarity scores into idea recommendations.
package recommend

import (
	"math"
	"sort"

	"github.com/Lactantius/agnosis-backend/internal/graph"
)

// DefaultDislikeAgreement sits just below the [-3, 3] range a like can
// express, so a dislike always reads as stronger rejection than the
// most negative like.
const DefaultDislikeAgreement = -4

// Engine scores candidate ideas for a user from the reaction patterns
// of users who share reacted ideas with them. It is a pure function of
// the reaction data handed to it and never touches the store.
type Engine struct {
	dislikeAgreement float64
}

// NewEngine creates an engine substituting the given agreement value
// for dislikes, which carry no intensity of their own. Non-negative
// values fall back to the default.
func NewEngine(dislikeAgreement int) *Engine {
	if dislikeAgreement >= 0 {
		dislikeAgreement = DefaultDislikeAgreement
	}
	return &Engine{dislikeAgreement: float64(dislikeAgreement)}
}

// IdeaScore is a candidate idea with its weighted recommendation score
// and the number of distinct users who reacted to it.
type IdeaScore struct {
	IdeaID   string  `json:"idea_id"`
	Score    float64 `json:"score"`
	Reactors int     `json:"reactors"`
}

func (e *Engine) agreement(r graph.Reaction) float64 {
	if r.Kind == graph.ReactionDislike {
		return e.dislikeAgreement
	}
	return float64(r.Agreement)
}

func vector(e *Engine, reactions []graph.Reaction) map[string]float64 {
	vec := make(map[string]float64, len(reactions))
	for _, r := range reactions {
		vec[r.IdeaID] = e.agreement(r)
	}
	return vec
}

// Similarity computes the Pearson correlation between two users'
// agreement vectors over the ideas both reacted to. The mean for the
// first user is taken over the shared ideas, the mean for the second
// over all of their reactions. The second return is false when the
// users share no ideas or the correlation is degenerate
// (zero variance on either side); such pairs carry no signal and are
// excluded from scoring, never surfaced as errors.
func (e *Engine) Similarity(own, other []graph.Reaction) (float64, bool) {
	ownVec := vector(e, own)
	otherVec := vector(e, other)

	var shared []string
	for ideaID := range ownVec {
		if _, ok := otherVec[ideaID]; ok {
			shared = append(shared, ideaID)
		}
	}
	if len(shared) == 0 {
		return 0, false
	}

	var ownSum float64
	for _, ideaID := range shared {
		ownSum += ownVec[ideaID]
	}
	ownMean := ownSum / float64(len(shared))

	var otherSum float64
	for _, v := range otherVec {
		otherSum += v
	}
	otherMean := otherSum / float64(len(otherVec))

	var numerator, ownSq, otherSq float64
	for _, ideaID := range shared {
		ownDev := ownVec[ideaID] - ownMean
		otherDev := otherVec[ideaID] - otherMean
		numerator += ownDev * otherDev
		ownSq += ownDev * ownDev
		otherSq += otherDev * otherDev
	}

	denominator := math.Sqrt(ownSq * otherSq)
	if denominator == 0 {
		return 0, false
	}
	return numerator / denominator, true
}

// Recommendations scores every idea the target user has not reacted to
// that at least one similar user has. own holds the target user's
// reactions; others holds the complete reaction lists of every user
// sharing at least one reacted idea. For each candidate idea the score
// is the sum over contributing users of similarity times that user's
// agreement. Results come back ordered by idea id.
func (e *Engine) Recommendations(userID string, own, others []graph.Reaction) []IdeaScore {
	if len(own) == 0 {
		return nil
	}

	byUser := make(map[string][]graph.Reaction)
	for _, r := range others {
		if r.UserID == userID {
			continue
		}
		byUser[r.UserID] = append(byUser[r.UserID], r)
	}

	seen := make(map[string]struct{}, len(own))
	for _, r := range own {
		seen[r.IdeaID] = struct{}{}
	}

	scores := make(map[string]float64)
	reactors := make(map[string]map[string]struct{})

	for otherID, reactions := range byUser {
		sim, ok := e.Similarity(own, reactions)
		for _, r := range reactions {
			if reactors[r.IdeaID] == nil {
				reactors[r.IdeaID] = make(map[string]struct{})
			}
			reactors[r.IdeaID][otherID] = struct{}{}
		}
		if !ok {
			continue
		}
		for _, r := range reactions {
			if _, alreadySeen := seen[r.IdeaID]; alreadySeen {
				continue
			}
			scores[r.IdeaID] += sim * e.agreement(r)
		}
	}

	results := make([]IdeaScore, 0, len(scores))
	for ideaID, score := range scores {
		results = append(results, IdeaScore{
			IdeaID:   ideaID,
			Score:    score,
			Reactors: len(reactors[ideaID]),
		})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].IdeaID < results[j].IdeaID })
	return results
}
