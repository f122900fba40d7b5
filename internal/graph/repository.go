package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/db"
	"go.uber.org/zap"

	"github.com/Lactantius/agnosis-backend/pkg/apperrors"
	"github.com/Lactantius/agnosis-backend/pkg/logger"
)

// Repository is the Neo4j-backed Store. Every operation opens its own
// session and runs as a single transaction; uniqueness is enforced by
// database constraints, so a violating create fails without partial
// state.
type Repository struct {
	driver neo4j.DriverWithContext
	logger *zap.Logger
}

// NewRepository creates a new graph repository
func NewRepository(driver neo4j.DriverWithContext) *Repository {
	return &Repository{
		driver: driver,
		logger: logger.Get(),
	}
}

var _ Store = (*Repository)(nil)

// Close closes the Neo4j driver connection
func (r *Repository) Close() error {
	return r.driver.Close(context.Background())
}

// EnsureSchema creates the uniqueness constraints and the full-text
// index over idea url and description. Safe to run repeatedly.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	statements := []string{
		`CREATE CONSTRAINT unique_email IF NOT EXISTS FOR (u:User) REQUIRE u.email IS UNIQUE`,
		`CREATE CONSTRAINT unique_username IF NOT EXISTS FOR (u:User) REQUIRE u.username IS UNIQUE`,
		`CREATE CONSTRAINT unique_source_name IF NOT EXISTS FOR (s:Source) REQUIRE s.name IS UNIQUE`,
		`CREATE FULLTEXT INDEX ideaText IF NOT EXISTS FOR (i:Idea) ON EACH [i.url, i.description]`,
	}
	for _, stmt := range statements {
		if _, err := session.Run(ctx, stmt, nil); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}

	r.logger.Info("Graph schema ensured")
	return nil
}

// asConstraintError translates a Neo4j constraint violation into the
// domain ConstraintError, inferring the offending field from the
// constraint name embedded in the message.
func asConstraintError(err error) (*apperrors.ConstraintError, bool) {
	var neoErr *db.Neo4jError
	if !errors.As(err, &neoErr) {
		return nil, false
	}
	if !strings.Contains(neoErr.Code, "ConstraintValidationFailed") &&
		!strings.Contains(neoErr.Code, "ConstraintViolation") {
		return nil, false
	}

	field := "unknown"
	switch {
	case strings.Contains(neoErr.Msg, "email"):
		field = "email"
	case strings.Contains(neoErr.Msg, "username"):
		field = "username"
	case strings.Contains(neoErr.Msg, "name"):
		field = "name"
	}
	return &apperrors.ConstraintError{Field: field}, true
}
