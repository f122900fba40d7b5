package graph

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/Lactantius/agnosis-backend/pkg/apperrors"
)

// These tests require a running Neo4j instance at bolt://localhost:7687
// (user neo4j, password "password"); run with -short to skip them.

func createTestDriver() (neo4j.DriverWithContext, error) {
	driver, err := neo4j.NewDriverWithContext("bolt://localhost:7687", neo4j.BasicAuth("neo4j", "password", ""))
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, err
	}
	return driver, nil
}

// cleanupUsers detach-deletes the given users and every idea they
// posted.
func cleanupUsers(ctx context.Context, driver neo4j.DriverWithContext, userIDs ...string) {
	session := driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)
	_, _ = session.Run(ctx, `
		MATCH (u:User) WHERE u.id IN $ids
		OPTIONAL MATCH (u)-[:POSTED]->(i:Idea)
		DETACH DELETE u, i
	`, map[string]interface{}{"ids": userIDs})
}

func TestRepository_CreateUser_Duplicate(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	ctx := context.Background()
	driver, err := createTestDriver()
	if err != nil {
		t.Fatalf("Failed to create driver: %v", err)
	}
	defer driver.Close(ctx)

	repo := NewRepository(driver)
	if err := repo.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}

	suffix := time.Now().Format("20060102150405.000")
	email := fmt.Sprintf("dup-%s@example.com", suffix)

	user, err := repo.CreateUser(ctx, email, "dup-user-"+suffix, "hash")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	defer cleanupUsers(ctx, driver, user.ID)

	_, err = repo.CreateUser(ctx, email, "dup-user2-"+suffix, "hash")
	if !apperrors.IsConstraint(err) {
		t.Errorf("Expected ConstraintError, got %v", err)
	}
}

func TestRepository_ReactionExclusivity(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	ctx := context.Background()
	driver, err := createTestDriver()
	if err != nil {
		t.Fatalf("Failed to create driver: %v", err)
	}
	defer driver.Close(ctx)

	repo := NewRepository(driver)
	if err := repo.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}

	suffix := time.Now().Format("20060102150405.000")
	user, err := repo.CreateUser(ctx, fmt.Sprintf("react-%s@example.com", suffix), "react-"+suffix, "hash")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	defer cleanupUsers(ctx, driver, user.ID)

	idea, err := repo.CreateIdea(ctx, user.ID, "https://example.com", "test idea", "")
	if err != nil {
		t.Fatalf("CreateIdea failed: %v", err)
	}

	if _, err := repo.UpsertReaction(ctx, user.ID, idea.ID, ReactionLike, 2); err != nil {
		t.Fatalf("UpsertReaction(like) failed: %v", err)
	}
	if _, err := repo.UpsertReaction(ctx, user.ID, idea.ID, ReactionDislike, 0); err != nil {
		t.Fatalf("UpsertReaction(dislike) failed: %v", err)
	}

	reactions, err := repo.ListIdeaReactions(ctx, idea.ID)
	if err != nil {
		t.Fatalf("ListIdeaReactions failed: %v", err)
	}
	if len(reactions) != 1 {
		t.Fatalf("Expected exactly 1 reaction, got %d", len(reactions))
	}
	if reactions[0].Kind != ReactionDislike {
		t.Errorf("Expected DISLIKES, got %s", reactions[0].Kind)
	}
}

func TestRepository_DeleteIdea_RemovesEdges(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	ctx := context.Background()
	driver, err := createTestDriver()
	if err != nil {
		t.Fatalf("Failed to create driver: %v", err)
	}
	defer driver.Close(ctx)

	repo := NewRepository(driver)
	if err := repo.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}

	suffix := time.Now().Format("20060102150405.000")
	user, err := repo.CreateUser(ctx, fmt.Sprintf("del-%s@example.com", suffix), "del-"+suffix, "hash")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	defer cleanupUsers(ctx, driver, user.ID)

	idea, err := repo.CreateIdea(ctx, user.ID, "https://example.com", "doomed idea", "")
	if err != nil {
		t.Fatalf("CreateIdea failed: %v", err)
	}
	if _, err := repo.UpsertReaction(ctx, user.ID, idea.ID, ReactionLike, 1); err != nil {
		t.Fatalf("UpsertReaction failed: %v", err)
	}

	if err := repo.DeleteIdea(ctx, idea.ID); err != nil {
		t.Fatalf("DeleteIdea failed: %v", err)
	}

	got, err := repo.GetIdea(ctx, idea.ID)
	if err != nil {
		t.Fatalf("GetIdea failed: %v", err)
	}
	if got != nil {
		t.Error("Idea still present after delete")
	}

	reactions, err := repo.ListUserReactions(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListUserReactions failed: %v", err)
	}
	if len(reactions) != 0 {
		t.Errorf("Expected no reactions after delete, got %d", len(reactions))
	}

	if err := repo.DeleteIdea(ctx, idea.ID); !apperrors.IsNotFound(err) {
		t.Errorf("Expected NotFoundError on second delete, got %v", err)
	}
}

func TestRepository_GetUser_Absent(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	ctx := context.Background()
	driver, err := createTestDriver()
	if err != nil {
		t.Fatalf("Failed to create driver: %v", err)
	}
	defer driver.Close(ctx)

	repo := NewRepository(driver)
	user, err := repo.GetUserByID(ctx, "no-such-user")
	if err != nil {
		t.Fatalf("GetUserByID failed: %v", err)
	}
	if user != nil {
		t.Error("Expected nil for absent user")
	}
}
