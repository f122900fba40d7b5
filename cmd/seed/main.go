// Command seed resets the graph schema and loads development fixtures:
// a handful of users and sources, the starter ideas, and randomized
// reactions so the similarity engine has signal to work with.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Lactantius/agnosis-backend/internal/auth"
	"github.com/Lactantius/agnosis-backend/internal/graph"
	"github.com/Lactantius/agnosis-backend/internal/ideas"
	"github.com/Lactantius/agnosis-backend/pkg/config"
	"github.com/Lactantius/agnosis-backend/pkg/logger"
)

type fixtureUser struct {
	email    string
	username string
	password string
}

type fixtureIdea struct {
	url         string
	description string
	source      string
}

var fixtureUsers = []fixtureUser{
	{"user1@user1.com", "user1", "password1"},
	{"user2@user2.com", "user2", "password2"},
	{"calvino@example.com", "invisible_cities", "password3"},
	{"borges@example.com", "the_library", "password4"},
	{"lem@example.com", "solaris_station", "password5"},
	{"eco@example.com", "name_of_the_rose", "password6"},
}

var fixtureSources = []string{
	"Scott Alexander",
	"Ross Douthat",
	"Zeynep Tufekci",
	"Matt Levine",
}

var fixtureIdeas = []fixtureIdea{
	{
		"https://slatestarcodex.com/2014/04/22/right-is-the-new-left/",
		"A theory of social change using cellular automata",
		"Scott Alexander",
	},
	{
		"https://www.nytimes.com/2020/02/07/opinion/sunday/western-society-decadence.html",
		"Western society is more decadent than you think",
		"Ross Douthat",
	},
	{
		"https://www.theatlantic.com/technology/archive/2018/01/the-digital-town-square/550363/",
		"Social platforms reshape the public sphere in ways their designers never intended",
		"Zeynep Tufekci",
	},
	{
		"https://www.bloomberg.com/opinion/articles/money-stuff",
		"Everything is securities fraud, and that is a feature of the system",
		"Matt Levine",
	},
	{
		"https://example.com/aging-research",
		"Treating aging itself as a disease would reorder medical priorities",
		"",
	},
	{
		"https://example.com/georgism",
		"A land value tax cannot be passed on to tenants",
		"",
	},
}

func main() {
	seedVal := flag.Int64("seed", 0, "Seed for the reaction randomizer")
	reactionsPer := flag.Int("reactions", 10, "Reaction attempts per user")
	flag.Parse()

	if err := logger.Init("development"); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting database seeding...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	driver, err := neo4j.NewDriverWithContext(
		cfg.Neo4jURI,
		neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
	)
	if err != nil {
		log.Fatal("Failed to create Neo4j driver", zap.Error(err))
	}
	defer driver.Close(context.Background())

	ctx := context.Background()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		log.Fatal("Failed to verify Neo4j connectivity", zap.Error(err))
	}

	store := graph.NewRepository(driver)
	if err := store.EnsureSchema(ctx); err != nil {
		log.Fatal("Failed to ensure graph schema", zap.Error(err))
	}

	authSvc := auth.NewService(store, cfg.JWTSecret, cfg.TokenTTL)
	ideaSvc := ideas.NewService(store)

	// Users
	userIDs := make([]string, 0, len(fixtureUsers))
	for _, fu := range fixtureUsers {
		creds, err := authSvc.Register(ctx, fu.email, fu.username, fu.password)
		if err != nil {
			log.Warn("Skipping user", zap.String("username", fu.username), zap.Error(err))
			continue
		}
		userIDs = append(userIDs, creds.User.ID)
	}
	if len(userIDs) == 0 {
		log.Fatal("No users could be created")
	}

	// Sources
	sourceIDs := make(map[string]string, len(fixtureSources))
	for _, name := range fixtureSources {
		source, err := store.CreateSource(ctx, name)
		if err != nil {
			log.Warn("Skipping source", zap.String("name", name), zap.Error(err))
			continue
		}
		sourceIDs[name] = source.ID
	}

	// Ideas, posted concurrently by round-robin users
	rng := rand.New(rand.NewSource(*seedVal))
	ideaIDs := make([]string, len(fixtureIdeas))

	g, gctx := errgroup.WithContext(ctx)
	for i, fi := range fixtureIdeas {
		i, fi := i, fi
		posterID := userIDs[i%len(userIDs)]
		g.Go(func() error {
			idea, err := ideaSvc.Post(gctx, posterID, fi.url, fi.description, sourceIDs[fi.source])
			if err != nil {
				return err
			}
			ideaIDs[i] = idea.ID
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatal("Failed to seed ideas", zap.Error(err))
	}

	// Randomized reactions. Some will overwrite earlier ones; that is
	// fine for dev data.
	for _, userID := range userIDs {
		for i := 0; i < *reactionsPer; i++ {
			ideaID := ideaIDs[rng.Intn(len(ideaIDs))]
			if rng.Intn(2) == 0 {
				_, err = ideaSvc.Like(ctx, userID, ideaID, rng.Intn(7)-3)
			} else {
				_, err = ideaSvc.Dislike(ctx, userID, ideaID)
			}
			if err != nil {
				log.Warn("Failed to seed reaction", zap.Error(err))
			}
		}
	}

	log.Info("Seeding complete",
		zap.Int("users", len(userIDs)),
		zap.Int("sources", len(sourceIDs)),
		zap.Int("ideas", len(ideaIDs)),
	)
}
