package recommend

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lactantius/agnosis-backend/internal/graph"
)

func like(userID, ideaID string, agreement int) graph.Reaction {
	return graph.Reaction{UserID: userID, IdeaID: ideaID, Kind: graph.ReactionLike, Agreement: agreement}
}

func dislike(userID, ideaID string) graph.Reaction {
	return graph.Reaction{UserID: userID, IdeaID: ideaID, Kind: graph.ReactionDislike}
}

// A and B both like X (A:+2, B:+3) and Y (A:-1, B:-2); B also likes W
// (+2) which A has not seen. The correlation should be strongly
// positive, and W should be scored pearson(A,B) * 2.
func TestEngine_SimilarUsers(t *testing.T) {
	engine := NewEngine(DefaultDislikeAgreement)

	own := []graph.Reaction{
		like("a", "x", 2),
		like("a", "y", -1),
		like("a", "z", 1),
	}
	others := []graph.Reaction{
		like("b", "x", 3),
		like("b", "y", -2),
		like("b", "w", 2),
	}

	sim, ok := engine.Similarity(own, others)
	require.True(t, ok)
	assert.Greater(t, sim, 0.9)

	// Check against the formula directly: A's mean over shared ideas
	// {x, y} is 0.5, B's mean over all ideas is 1.
	numerator := (2-0.5)*(3-1.) + (-1-0.5)*(-2-1.)
	denominator := math.Sqrt((1.5*1.5 + 1.5*1.5) * (2*2 + 3*3))
	assert.InDelta(t, numerator/denominator, sim, 1e-9)

	scores := engine.Recommendations("a", own, others)
	require.Len(t, scores, 1)
	assert.Equal(t, "w", scores[0].IdeaID)
	assert.InDelta(t, sim*2, scores[0].Score, 1e-9)
	assert.Equal(t, 1, scores[0].Reactors)
}

func TestEngine_OpposedUsersScoreNegatively(t *testing.T) {
	engine := NewEngine(DefaultDislikeAgreement)

	own := []graph.Reaction{
		like("a", "x", 3),
		like("a", "y", -3),
	}
	others := []graph.Reaction{
		like("b", "x", -3),
		like("b", "y", 3),
		like("b", "w", 3),
	}

	sim, ok := engine.Similarity(own, others)
	require.True(t, ok)
	assert.Less(t, sim, 0.0)

	scores := engine.Recommendations("a", own, others)
	require.Len(t, scores, 1)
	// An anti-correlated user liking w counts against it
	assert.Less(t, scores[0].Score, 0.0)
}

func TestEngine_DislikeSentinel(t *testing.T) {
	engine := NewEngine(-4)

	// Both users dislike x and like y: dislikes read as agreement -4,
	// so the pair correlates positively.
	own := []graph.Reaction{
		dislike("a", "x"),
		like("a", "y", 3),
	}
	others := []graph.Reaction{
		dislike("b", "x"),
		like("b", "y", 2),
		like("b", "w", 1),
	}

	sim, ok := engine.Similarity(own, others)
	require.True(t, ok)
	assert.Greater(t, sim, 0.9)
}

func TestEngine_DegeneratePairsExcluded(t *testing.T) {
	engine := NewEngine(DefaultDislikeAgreement)

	// b agrees +2 with everything: zero variance, so the pair carries
	// no signal and is silently excluded rather than erroring.
	own := []graph.Reaction{
		like("a", "x", 2),
		like("a", "y", -1),
	}
	others := []graph.Reaction{
		like("b", "x", 2),
		like("b", "y", 2),
		like("b", "w", 2),
	}

	_, ok := engine.Similarity(own, others)
	assert.False(t, ok)

	scores := engine.Recommendations("a", own, others)
	assert.Empty(t, scores)
}

func TestEngine_NoSharedIdeas(t *testing.T) {
	engine := NewEngine(DefaultDislikeAgreement)

	own := []graph.Reaction{like("a", "x", 2)}
	others := []graph.Reaction{like("b", "y", 2)}

	_, ok := engine.Similarity(own, others)
	assert.False(t, ok)
	assert.Empty(t, engine.Recommendations("a", own, others))
}

func TestEngine_SeenIdeasNeverScored(t *testing.T) {
	engine := NewEngine(DefaultDislikeAgreement)

	own := []graph.Reaction{
		like("a", "x", 2),
		like("a", "y", -1),
	}
	others := []graph.Reaction{
		like("b", "x", 3),
		like("b", "y", -2),
	}

	// b shares both ideas but has nothing a hasn't reacted to
	assert.Empty(t, engine.Recommendations("a", own, others))
}

func TestEngine_MultipleContributorsSum(t *testing.T) {
	engine := NewEngine(DefaultDislikeAgreement)

	own := []graph.Reaction{
		like("a", "x", 2),
		like("a", "y", -2),
	}
	others := []graph.Reaction{
		// b correlates positively and likes w
		like("b", "x", 3),
		like("b", "y", -3),
		like("b", "w", 2),
		// c also correlates positively and likes w
		like("c", "x", 1),
		like("c", "y", -1),
		like("c", "w", 3),
	}

	scores := engine.Recommendations("a", own, others)
	require.Len(t, scores, 1)
	assert.Equal(t, "w", scores[0].IdeaID)
	assert.Equal(t, 2, scores[0].Reactors)

	simB, okB := engine.Similarity(own, []graph.Reaction{like("b", "x", 3), like("b", "y", -3), like("b", "w", 2)})
	require.True(t, okB)
	simC, okC := engine.Similarity(own, []graph.Reaction{like("c", "x", 1), like("c", "y", -1), like("c", "w", 3)})
	require.True(t, okC)
	assert.InDelta(t, simB*2+simC*3, scores[0].Score, 1e-9)
}

func TestNewEngine_RejectsNonNegativeSentinel(t *testing.T) {
	engine := NewEngine(2)
	assert.Equal(t, float64(DefaultDislikeAgreement), engine.dislikeAgreement)
}
