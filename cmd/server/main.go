package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/Lactantius/agnosis-backend/internal/auth"
	"github.com/Lactantius/agnosis-backend/internal/graph"
	"github.com/Lactantius/agnosis-backend/internal/ideas"
	"github.com/Lactantius/agnosis-backend/internal/recommend"
	"github.com/Lactantius/agnosis-backend/pkg/apperrors"
	"github.com/Lactantius/agnosis-backend/pkg/config"
	"github.com/Lactantius/agnosis-backend/pkg/logger"
)

func main() {
	// Initialize logger
	if err := logger.Init(os.Getenv("ENV")); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting HTTP API server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Initialize Neo4j driver
	driver, err := neo4j.NewDriverWithContext(
		cfg.Neo4jURI,
		neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
	)
	if err != nil {
		log.Fatal("Failed to create Neo4j driver", zap.Error(err))
	}
	defer driver.Close(context.Background())

	// Verify Neo4j connection
	ctx := context.Background()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		log.Fatal("Failed to verify Neo4j connectivity", zap.Error(err))
	}

	// Initialize dependencies
	store := graph.NewRepository(driver)
	if err := store.EnsureSchema(ctx); err != nil {
		log.Fatal("Failed to ensure graph schema", zap.Error(err))
	}

	authSvc := auth.NewService(store, cfg.JWTSecret, cfg.TokenTTL)
	ideaSvc := ideas.NewService(store)
	selector := recommend.NewSelector(store, recommend.NewEngine(cfg.DislikeAgreement))

	admins := make(map[string]bool, len(cfg.AdminUserIDs))
	for _, id := range cfg.AdminUserIDs {
		admins[id] = true
	}

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(ginLogger(log))
	router.Use(gin.Recovery())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PATCH, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")

	// Registration and authentication
	api.POST("/users/signup", func(c *gin.Context) {
		var req struct {
			Email    string `json:"email" binding:"required,email"`
			Username string `json:"username" binding:"required"`
			Password string `json:"password" binding:"required,min=8"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		creds, err := authSvc.Register(c.Request.Context(), req.Email, req.Username, req.Password)
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusCreated, creds)
	})

	api.POST("/users/login", func(c *gin.Context) {
		var req struct {
			Email    string `json:"email" binding:"required,email"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		creds, err := authSvc.Authenticate(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, creds)
	})

	api.PATCH("/users/me", requireAuth(authSvc), func(c *gin.Context) {
		var req struct {
			CurrentPassword string `json:"current_password" binding:"required"`
			Email           string `json:"email" binding:"omitempty,email"`
			Username        string `json:"username"`
			Password        string `json:"password" binding:"omitempty,min=8"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		user, err := authSvc.UpdateProfile(c.Request.Context(), callerID(c),
			req.CurrentPassword, req.Email, req.Username, req.Password)
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": user})
	})

	// Idea lifecycle
	api.POST("/ideas", requireAuth(authSvc), func(c *gin.Context) {
		var req struct {
			URL         string `json:"url" binding:"required,url"`
			Description string `json:"description" binding:"required"`
			SourceID    string `json:"source_id"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		idea, err := ideaSvc.Post(c.Request.Context(), callerID(c), req.URL, req.Description, req.SourceID)
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"idea": idea})
	})

	api.DELETE("/ideas/:id", requireAuth(authSvc), func(c *gin.Context) {
		requester := callerID(c)
		deleted, err := ideaSvc.Delete(c.Request.Context(), c.Param("id"), requester, admins[requester])
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": deleted})
	})

	// Reactions
	api.POST("/ideas/:id/like", requireAuth(authSvc), func(c *gin.Context) {
		var req struct {
			Agreement *int `json:"agreement" binding:"required,gte=-3,lte=3"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		reaction, err := ideaSvc.Like(c.Request.Context(), callerID(c), c.Param("id"), *req.Agreement)
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"reaction": reaction})
	})

	api.POST("/ideas/:id/dislike", requireAuth(authSvc), func(c *gin.Context) {
		reaction, err := ideaSvc.Dislike(c.Request.Context(), callerID(c), c.Param("id"))
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"reaction": reaction})
	})

	// Recommendations
	api.GET("/ideas/random", func(c *gin.Context) {
		idea, err := selector.RandomIdea(c.Request.Context())
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"idea": idea})
	})

	api.GET("/ideas/random-unseen", requireAuth(authSvc), func(c *gin.Context) {
		idea, err := selector.RandomUnseenIdea(c.Request.Context(), callerID(c))
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"idea": idea})
	})

	api.GET("/ideas/popular", requireAuth(authSvc), func(c *gin.Context) {
		idea, err := selector.PopularUnseenIdea(c.Request.Context(), callerID(c))
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"idea": idea})
	})

	api.GET("/ideas/agreeable", requireAuth(authSvc), func(c *gin.Context) {
		idea, score, err := selector.AgreeableIdea(c.Request.Context(), callerID(c))
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"idea": idea, "score": score})
	})

	api.GET("/ideas/disagreeable", requireAuth(authSvc), func(c *gin.Context) {
		idea, score, err := selector.DisagreeableIdea(c.Request.Context(), callerID(c))
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"idea": idea, "score": score})
	})

	// Search
	api.GET("/ideas/search", func(c *gin.Context) {
		query := c.Query("q")
		if query == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter q is required"})
			return
		}

		results, err := selector.Search(c.Request.Context(), query)
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"results": results})
	})

	// Idea details, with the viewer's own reaction when a token is sent
	api.GET("/ideas/:id", func(c *gin.Context) {
		viewerID := ""
		if token := bearerToken(c); token != "" {
			if id, err := authSvc.VerifyToken(token); err == nil {
				viewerID = id
			}
		}

		view, err := selector.IdeaDetails(c.Request.Context(), c.Param("id"), viewerID)
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, view)
	})

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started", zap.String("port", cfg.Port))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}

const callerIDKey = "callerID"

// callerID returns the authenticated user id set by requireAuth
func callerID(c *gin.Context) string {
	return c.GetString(callerIDKey)
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

// requireAuth resolves the Authorization header to a user id or rejects
// the request.
func requireAuth(authSvc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		userID, err := authSvc.VerifyToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(callerIDKey, userID)
		c.Next()
	}
}

// respondError maps the domain error taxonomy onto HTTP statuses.
// Anything unrecognized is a storage-level failure: logged, surfaced
// opaquely.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	switch {
	case apperrors.IsConstraint(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case apperrors.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case apperrors.IsUnauthorized(err):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrNoCandidates), errors.Is(err, apperrors.ErrEmptyGraph):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		log.Error("Request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// ginLogger is a custom logger middleware for Gin
func ginLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		log.Info("HTTP Request",
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
		)
	}
}
