package graph

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/Lactantius/agnosis-backend/pkg/apperrors"
)

// ============================================================================
// User Operations
// ============================================================================

// CreateUser creates a user node. The unique_email and unique_username
// constraints reject duplicates before anything is written.
func (r *Repository) CreateUser(ctx context.Context, email, username, passwordHash string) (*User, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		CREATE (u:User {
			id: $id,
			email: $email,
			username: $username,
			password: $password
		})
		RETURN u.id as id, u.email as email, u.username as username, u.password as password
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"id":       uuid.NewString(),
		"email":    email,
		"username": username,
		"password": passwordHash,
	})
	if err != nil {
		if ce, ok := asConstraintError(err); ok {
			return nil, ce
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if !result.Next(ctx) {
		// Constraint violations surface when the result is consumed.
		if err := result.Err(); err != nil {
			if ce, ok := asConstraintError(err); ok {
				return nil, ce
			}
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		return nil, fmt.Errorf("failed to create user: no record returned")
	}

	user := userFromRecord(result.Record())
	r.logger.Info("User created", zap.String("user_id", user.ID), zap.String("username", username))
	return user, nil
}

// UpdateUser rewrites the mutable fields of a user, subject to the same
// uniqueness constraints as CreateUser.
func (r *Repository) UpdateUser(ctx context.Context, id, email, username, passwordHash string) (*User, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		MATCH (u:User {id: $id})
		SET u.email = $email,
		    u.username = $username,
		    u.password = $password
		RETURN u.id as id, u.email as email, u.username as username, u.password as password
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"id":       id,
		"email":    email,
		"username": username,
		"password": passwordHash,
	})
	if err != nil {
		if ce, ok := asConstraintError(err); ok {
			return nil, ce
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			if ce, ok := asConstraintError(err); ok {
				return nil, ce
			}
			return nil, fmt.Errorf("failed to update user: %w", err)
		}
		return nil, &apperrors.NotFoundError{Entity: "user", ID: id}
	}

	return userFromRecord(result.Record()), nil
}

// GetUserByID returns nil when no user has the given id
func (r *Repository) GetUserByID(ctx context.Context, id string) (*User, error) {
	return r.findUser(ctx, "id", id)
}

// GetUserByEmail returns nil when no user has the given email
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return r.findUser(ctx, "email", email)
}

func (r *Repository) findUser(ctx context.Context, property, value string) (*User, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := fmt.Sprintf(`
		MATCH (u:User {%s: $value})
		RETURN u.id as id, u.email as email, u.username as username, u.password as password
	`, property)

	result, err := session.Run(ctx, query, map[string]interface{}{
		"value": value,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if result.Next(ctx) {
		return userFromRecord(result.Record()), nil
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return nil, nil
}
