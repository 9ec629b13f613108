package container

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"shopadmin/catalog/internal/categorytree"
	"shopadmin/catalog/internal/client"
	"shopadmin/catalog/internal/config"
	"shopadmin/catalog/internal/httpapi"
	"shopadmin/catalog/internal/queue"
	"shopadmin/catalog/internal/repository"
	"shopadmin/catalog/internal/service"
	"shopadmin/catalog/internal/state"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

// Container holds all initialized components
type Container struct {
	Config      *config.Config
	Client      client.BackendClient
	Submissions repository.SubmissionRepository
	Queue       queue.Queue
	Drafts      state.DraftStore

	Catalog *service.Catalog
	Editor  *service.Editor
	Worker  *service.Worker

	db    *pgxpool.Pool
	redis *redis.Client
}

// NewCatalog wires only what the read-only commands need: the backend client
// and the tree settings.
func NewCatalog(cfg *config.Config) *service.Catalog {
	return service.NewCatalog(client.NewBackendClient(cfg.Backend), treeOptions(cfg.Tree), cfg.Backend.CanonicalBase)
}

func treeOptions(cfg config.TreeConfig) categorytree.Options {
	return categorytree.Options{
		OrphanPolicy: categorytree.OrphanPolicy(cfg.OrphanPolicy),
		MaxDepth:     cfg.MaxDepth,
	}
}

// New creates a new container with all dependencies initialized
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	container := &Container{
		Config: cfg,
	}

	db, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}
	if err := repository.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	container.db = db
	log.Info("✅ Connected to Postgres successfully")

	submissions := repository.NewSubmissionRepository(db)
	container.Submissions = submissions

	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.Database,
	})

	// Test connection
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	container.redis = rdb
	log.Info("✅ Connected to Redis successfully")

	redisQueue, err := queue.NewRedisQueue(ctx, rdb, cfg.Redis)
	if err != nil {
		container.Close()
		return nil, err
	}
	container.Queue = redisQueue

	drafts := state.NewRedisDraftStore(rdb, time.Duration(cfg.Redis.DraftTTL)*time.Second)
	container.Drafts = drafts

	backendClient := client.NewBackendClient(cfg.Backend)
	container.Client = backendClient

	container.Catalog = service.NewCatalog(backendClient, treeOptions(cfg.Tree), cfg.Backend.CanonicalBase)
	container.Editor = service.NewEditor(container.Catalog, backendClient, drafts, redisQueue, submissions)
	container.Worker = service.NewWorker(
		backendClient,
		redisQueue,
		drafts,
		submissions,
		cfg.Redis.ConsumerGroup,
		cfg.Redis.MinIdleTime,
		cfg.Worker.MaxRetries,
	)

	return container, nil
}

// Run serves the HTTP API and runs the submission workers until ctx is done
func (c *Container) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	server := &http.Server{
		Addr:              c.Config.Server.Addr(),
		Handler:           httpapi.NewRouter(c.Config.Server, c.Catalog, c.Editor),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		log.Infof("🚀 HTTP API listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	// Run workers to process submissions
	g.Go(func() error {
		return c.Worker.RunWorkers(ctx, c.Config.Worker.Count)
	})

	return g.Wait()
}

// Close performs cleanup when shutting down
func (c *Container) Close() error {
	log.Info("Shutting down container...")

	if c.db != nil {
		c.db.Close()
	}
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			return err
		}
	}

	log.Info("Container shut down successfully")
	return nil
}
