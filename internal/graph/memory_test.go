package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lactantius/agnosis-backend/pkg/apperrors"
)

func seedUserAndIdea(t *testing.T, store *MemoryStore) (*User, *Idea) {
	t.Helper()
	ctx := context.Background()

	user, err := store.CreateUser(ctx, "poster@example.com", "poster", "hash")
	require.NoError(t, err)
	idea, err := store.CreateIdea(ctx, user.ID, "https://example.com", "an idea", "")
	require.NoError(t, err)
	return user, idea
}

func TestMemoryStore_CreateUser_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	first, err := store.CreateUser(ctx, "a@example.com", "alice", "hash")
	require.NoError(t, err)

	_, err = store.CreateUser(ctx, "a@example.com", "alice2", "hash")
	var ce *apperrors.ConstraintError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "email", ce.Field)

	// First user unchanged
	got, err := store.GetUserByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, first.ID, got.ID)

	// Failed create left no partial state
	ghost, err := store.GetUserByID(ctx, "alice2")
	require.NoError(t, err)
	assert.Nil(t, ghost)
}

func TestMemoryStore_CreateUser_DuplicateUsername(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.CreateUser(ctx, "a@example.com", "alice", "hash")
	require.NoError(t, err)

	_, err = store.CreateUser(ctx, "b@example.com", "alice", "hash")
	var ce *apperrors.ConstraintError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "username", ce.Field)
}

func TestMemoryStore_UpdateUser(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	user, err := store.CreateUser(ctx, "a@example.com", "alice", "hash")
	require.NoError(t, err)
	_, err = store.CreateUser(ctx, "b@example.com", "bob", "hash")
	require.NoError(t, err)

	// Taking bob's email fails
	_, err = store.UpdateUser(ctx, user.ID, "b@example.com", "alice", "hash")
	assert.True(t, apperrors.IsConstraint(err))

	// Keeping your own email is not a violation
	updated, err := store.UpdateUser(ctx, user.ID, "a@example.com", "alicia", "newhash")
	require.NoError(t, err)
	assert.Equal(t, "alicia", updated.Username)
	assert.Equal(t, "newhash", updated.PasswordHash)

	// Old username is free again
	_, err = store.CreateUser(ctx, "c@example.com", "alice", "hash")
	assert.NoError(t, err)
}

func TestMemoryStore_CreateSource_DuplicateName(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.CreateSource(ctx, "Some Writer")
	require.NoError(t, err)

	_, err = store.CreateSource(ctx, "Some Writer")
	var ce *apperrors.ConstraintError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "name", ce.Field)
}

func TestMemoryStore_CreateIdea(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	user, err := store.CreateUser(ctx, "a@example.com", "alice", "hash")
	require.NoError(t, err)
	source, err := store.CreateSource(ctx, "Some Writer")
	require.NoError(t, err)

	idea, err := store.CreateIdea(ctx, user.ID, "https://example.com", "an idea", source.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, idea.ID)
	assert.False(t, idea.CreatedAt.IsZero())
	assert.Equal(t, user.ID, idea.PosterID)
	assert.Equal(t, source.ID, idea.SourceID)

	// Missing poster
	_, err = store.CreateIdea(ctx, "nobody", "https://example.com", "x", "")
	var nf *apperrors.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "user", nf.Entity)

	// Missing source
	_, err = store.CreateIdea(ctx, user.ID, "https://example.com", "x", "nowhere")
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "source", nf.Entity)
}

func TestMemoryStore_ReactionExclusivity(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	user, idea := seedUserAndIdea(t, store)

	_, err := store.UpsertReaction(ctx, user.ID, idea.ID, ReactionLike, 2)
	require.NoError(t, err)
	_, err = store.UpsertReaction(ctx, user.ID, idea.ID, ReactionDislike, 0)
	require.NoError(t, err)

	// Exactly one edge remains and it is the dislike
	reactions, err := store.ListIdeaReactions(ctx, idea.ID)
	require.NoError(t, err)
	require.Len(t, reactions, 1)
	assert.Equal(t, ReactionDislike, reactions[0].Kind)

	// Liking again flips it back
	_, err = store.UpsertReaction(ctx, user.ID, idea.ID, ReactionLike, -1)
	require.NoError(t, err)
	got, err := store.GetReaction(ctx, user.ID, idea.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, ReactionLike, got.Kind)
	assert.Equal(t, -1, got.Agreement)
}

func TestMemoryStore_RepeatedLikeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	user, idea := seedUserAndIdea(t, store)

	_, err := store.UpsertReaction(ctx, user.ID, idea.ID, ReactionLike, 3)
	require.NoError(t, err)
	_, err = store.UpsertReaction(ctx, user.ID, idea.ID, ReactionLike, 3)
	require.NoError(t, err)

	reactions, err := store.ListUserReactions(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, reactions, 1)
	assert.Equal(t, 3, reactions[0].Agreement)
}

func TestMemoryStore_UpsertReaction_MissingNodes(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	user, idea := seedUserAndIdea(t, store)

	var nf *apperrors.NotFoundError
	_, err := store.UpsertReaction(ctx, "nobody", idea.ID, ReactionLike, 1)
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "user", nf.Entity)

	_, err = store.UpsertReaction(ctx, user.ID, "nothing", ReactionLike, 1)
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "idea", nf.Entity)
}

func TestMemoryStore_DeleteIdea_RemovesAllEdges(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	user, idea := seedUserAndIdea(t, store)

	other, err := store.CreateUser(ctx, "b@example.com", "bob", "hash")
	require.NoError(t, err)
	_, err = store.UpsertReaction(ctx, other.ID, idea.ID, ReactionLike, 2)
	require.NoError(t, err)
	_, err = store.UpsertReaction(ctx, user.ID, idea.ID, ReactionDislike, 0)
	require.NoError(t, err)

	require.NoError(t, store.DeleteIdea(ctx, idea.ID))

	got, err := store.GetIdea(ctx, idea.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	for _, userID := range []string{user.ID, other.ID} {
		reactions, err := store.ListUserReactions(ctx, userID)
		require.NoError(t, err)
		assert.Empty(t, reactions)
	}

	counts, err := store.LikeCounts(ctx)
	require.NoError(t, err)
	assert.Empty(t, counts)

	err = store.DeleteIdea(ctx, idea.ID)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestMemoryStore_ListUnseenIdeas(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	user, posted := seedUserAndIdea(t, store)

	other, err := store.CreateUser(ctx, "b@example.com", "bob", "hash")
	require.NoError(t, err)
	liked, err := store.CreateIdea(ctx, other.ID, "https://example.com/1", "liked", "")
	require.NoError(t, err)
	fresh, err := store.CreateIdea(ctx, other.ID, "https://example.com/2", "fresh", "")
	require.NoError(t, err)

	_, err = store.UpsertReaction(ctx, user.ID, liked.ID, ReactionLike, 1)
	require.NoError(t, err)

	unseen, err := store.ListUnseenIdeas(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, unseen, 1)
	assert.Equal(t, fresh.ID, unseen[0].ID)

	// Both posted and reacted ideas count as seen
	for _, idea := range unseen {
		assert.NotEqual(t, posted.ID, idea.ID)
		assert.NotEqual(t, liked.ID, idea.ID)
	}
}

func TestMemoryStore_LikeCounts(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	user, idea := seedUserAndIdea(t, store)

	other, err := store.CreateUser(ctx, "b@example.com", "bob", "hash")
	require.NoError(t, err)

	_, err = store.UpsertReaction(ctx, user.ID, idea.ID, ReactionLike, 1)
	require.NoError(t, err)
	_, err = store.UpsertReaction(ctx, other.ID, idea.ID, ReactionDislike, 0)
	require.NoError(t, err)

	counts, err := store.LikeCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{idea.ID: 1}, counts)
}

func TestMemoryStore_NeighborhoodQueries(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	alice, x := seedUserAndIdea(t, store)

	bob, err := store.CreateUser(ctx, "b@example.com", "bob", "hash")
	require.NoError(t, err)
	y, err := store.CreateIdea(ctx, bob.ID, "https://example.com/y", "y", "")
	require.NoError(t, err)

	_, err = store.UpsertReaction(ctx, alice.ID, x.ID, ReactionLike, 2)
	require.NoError(t, err)
	_, err = store.UpsertReaction(ctx, bob.ID, x.ID, ReactionLike, 3)
	require.NoError(t, err)
	_, err = store.UpsertReaction(ctx, bob.ID, y.ID, ReactionDislike, 0)
	require.NoError(t, err)

	toX, err := store.ListReactionsToIdeas(ctx, []string{x.ID})
	require.NoError(t, err)
	assert.Len(t, toX, 2)

	bobAll, err := store.ListUsersReactions(ctx, []string{bob.ID})
	require.NoError(t, err)
	assert.Len(t, bobAll, 2)
}

func TestMemoryStore_SearchIdeas(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	user, _ := seedUserAndIdea(t, store)

	cities, err := store.CreateIdea(ctx, user.ID, "https://example.com/cities", "invisible cities and their signs", "")
	require.NoError(t, err)
	_, err = store.CreateIdea(ctx, user.ID, "https://example.com/other", "nothing relevant", "")
	require.NoError(t, err)

	results, err := store.SearchIdeas(ctx, "invisible cities", 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, cities.ID, results[0].IdeaID)
	assert.Equal(t, 1.0, results[0].Score)

	results, err = store.SearchIdeas(ctx, "", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}
