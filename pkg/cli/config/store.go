package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/checkerboard/pkg/domain/interfaces"
	"github.com/secmon-lab/checkerboard/pkg/repository/firestore"
	"github.com/secmon-lab/checkerboard/pkg/repository/memory"
	"github.com/secmon-lab/checkerboard/pkg/repository/redis"
	"github.com/secmon-lab/checkerboard/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Store holds CLI flags for the mapping store backend
type Store struct {
	backend          string
	redisURL         string
	redisPassword    string
	projectID        string
	databaseID       string
	collectionPrefix string
}

// Flags returns CLI flags for store configuration
func (s *Store) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "store-backend",
			Usage:       "Mapping store backend (redis, firestore or memory)",
			Category:    "Store",
			Value:       "redis",
			Sources:     cli.EnvVars("CHECKERBOARD_STORE_BACKEND"),
			Destination: &s.backend,
		},
		&cli.StringFlag{
			Name:        "redis-url",
			Usage:       "Redis URL, e.g. redis://localhost:6379/0 (required when using redis backend)",
			Category:    "Store",
			Sources:     cli.EnvVars("CHECKERBOARD_REDIS_URL"),
			Destination: &s.redisURL,
		},
		&cli.StringFlag{
			Name:        "redis-password",
			Usage:       "Redis password, overrides any password in --redis-url",
			Category:    "Store",
			Sources:     cli.EnvVars("CHECKERBOARD_REDIS_PASSWORD"),
			Destination: &s.redisPassword,
		},
		&cli.StringFlag{
			Name:        "firestore-project-id",
			Usage:       "Firestore Project ID (required when using firestore backend)",
			Category:    "Store",
			Sources:     cli.EnvVars("CHECKERBOARD_FIRESTORE_PROJECT_ID"),
			Destination: &s.projectID,
		},
		&cli.StringFlag{
			Name:        "firestore-database-id",
			Usage:       "Firestore Database ID",
			Category:    "Store",
			Sources:     cli.EnvVars("CHECKERBOARD_FIRESTORE_DATABASE_ID"),
			Destination: &s.databaseID,
		},
		&cli.StringFlag{
			Name:        "firestore-collection-prefix",
			Usage:       "Prefix for the Firestore mapping collection",
			Category:    "Store",
			Sources:     cli.EnvVars("CHECKERBOARD_FIRESTORE_COLLECTION_PREFIX"),
			Destination: &s.collectionPrefix,
		},
	}
}

func (s Store) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("backend", s.backend),
		slog.Int("redis-url.len", len(s.redisURL)),
		slog.Int("redis-password.len", len(s.redisPassword)),
		slog.String("firestore-project-id", s.projectID),
		slog.String("firestore-database-id", s.databaseID),
	)
}

// Backend returns the configured backend type
func (s *Store) Backend() string {
	return s.backend
}

// Configure initializes and returns the store for the configured backend.
// The caller is responsible for calling Close() on the returned store.
func (s *Store) Configure(ctx context.Context) (interfaces.MappingStore, error) {
	switch s.backend {
	case "redis":
		if s.redisURL == "" {
			return nil, ErrMissingRedisURL
		}
		store, err := redis.New(ctx, s.redisURL, s.redisPassword)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize redis store")
		}
		logging.Default().Info("Using Redis store")
		return store, nil

	case "firestore":
		if s.projectID == "" {
			return nil, ErrMissingProjectID
		}
		var opts []firestore.Option
		if s.collectionPrefix != "" {
			opts = append(opts, firestore.WithCollectionPrefix(s.collectionPrefix))
		}
		store, err := firestore.New(ctx, s.projectID, s.databaseID, opts...)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize firestore store")
		}
		logging.Default().Info("Using Firestore store",
			"project_id", s.projectID,
			"database_id", s.databaseID,
		)
		return store, nil

	case "memory":
		logging.Default().Warn("Using in-memory store (development mode, mappings are lost on restart)")
		return memory.New(), nil

	default:
		return nil, goerr.Wrap(ErrInvalidBackend, "unknown --store-backend", goerr.V(BackendKey, s.backend))
	}
}
