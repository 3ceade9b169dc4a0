package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/mildlymodbot/mmb/automod/cachestore"
	"github.com/mildlymodbot/mmb/automod/consumer"
	"github.com/mildlymodbot/mmb/automod/countstore"
	"github.com/mildlymodbot/mmb/automod/engine"
	"github.com/mildlymodbot/mmb/automod/seenstore"
	"github.com/mildlymodbot/mmb/automod/setstore"
	"github.com/mildlymodbot/mmb/reddit"
	"github.com/mildlymodbot/mmb/util/cliutil"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

type Server struct {
	subreddit string
	logger    *slog.Logger
	engine    *engine.Engine
	consumer  *consumer.ModLogConsumer
	rdb       *redis.Client
}

type Config struct {
	Logger          *slog.Logger
	Subreddit       string
	RedisURL        string
	DatabaseURL     string
	MaxDBConns      int
	DedupBackend    string
	SetsFileJSON    string
	SlackWebhookURL string
	MaxPollPeriod   time.Duration
	SpamLabel       string
	RemovedPrefix   string
	SpamCategories  []string
	FlairCSSClass   string
	BanThreshold    int
}

func NewServer(rc *reddit.Client, config Config) (*Server, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}
	if config.Subreddit == "" {
		return nil, fmt.Errorf("subreddit name is required")
	}

	sets := setstore.NewMemSetStore()
	if config.SetsFileJSON != "" {
		if err := sets.LoadFromFileJSON(config.SetsFileJSON); err != nil {
			return nil, fmt.Errorf("initializing in-process setstore: %v", err)
		} else {
			logger.Info("loaded set config from JSON", "path", config.SetsFileJSON)
		}
	}

	var counters countstore.CountStore
	var cache cachestore.CacheStore
	var rdb *redis.Client
	if config.RedisURL != "" {
		// generic client, for cursor state
		opt, err := redis.ParseURL(config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis URL: %v", err)
		}
		rdb = redis.NewClient(opt)
		// check redis connection
		_, err = rdb.Ping(context.TODO()).Result()
		if err != nil {
			return nil, fmt.Errorf("redis ping failed: %v", err)
		}

		cnt, err := countstore.NewRedisCountStore(config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("initializing redis countstore: %v", err)
		}
		counters = cnt

		csh, err := cachestore.NewRedisCacheStore(config.RedisURL, 30*time.Minute)
		if err != nil {
			return nil, fmt.Errorf("initializing redis cachestore: %v", err)
		}
		cache = csh
	} else {
		counters = countstore.NewMemCountStore()
		cache = cachestore.NewMemCacheStore(5_000, 30*time.Minute)
	}

	seen, err := configSeenStore(config, logger)
	if err != nil {
		return nil, err
	}

	policy := engine.DefaultPolicy(config.Subreddit)
	if config.SpamLabel != "" {
		policy.SpamLabel = config.SpamLabel
	}
	if config.RemovedPrefix != "" {
		policy.RemovedPrefix = config.RemovedPrefix
	}
	if len(config.SpamCategories) > 0 {
		policy.SpamCategories = config.SpamCategories
	}
	if config.BanThreshold > 0 {
		policy.BanThreshold = config.BanThreshold
	}
	policy.FlairCSSClass = config.FlairCSSClass

	platform := &RedditPlatform{
		Client:        rc,
		Subreddit:     config.Subreddit,
		FlairCSSClass: policy.FlairCSSClass,
		Logger:        logger,
	}

	eng := engine.Engine{
		Logger:          logger,
		Platform:        platform,
		Policy:          policy,
		Seen:            seen,
		Counters:        counters,
		Cache:           cache,
		Sets:            sets,
		SlackWebhookURL: config.SlackWebhookURL,
	}

	mc := consumer.ModLogConsumer{
		Logger:        logger.With("subsystem", "modlog-consumer"),
		RedisClient:   rdb,
		Source:        platform,
		Engine:        &eng,
		MaxPollPeriod: config.MaxPollPeriod,
	}

	s := &Server{
		subreddit: config.Subreddit,
		logger:    logger,
		engine:    &eng,
		consumer:  &mc,
		rdb:       rdb,
	}
	return s, nil
}

// Picks the dedup backend: explicit config wins; otherwise the most durable one configured.
func configSeenStore(config Config, logger *slog.Logger) (seenstore.SeenStore, error) {
	backend := config.DedupBackend
	if backend == "" {
		switch {
		case config.DatabaseURL != "":
			backend = "sql"
		case config.RedisURL != "":
			backend = "redis"
		default:
			backend = "memory"
		}
	}

	switch backend {
	case "memory":
		logger.Warn("processed posts are only tracked in memory; records will be lost on restart (strike flair still prevents double-counting)")
		return seenstore.NewMemSeenStore(), nil
	case "redis":
		if config.RedisURL == "" {
			return nil, fmt.Errorf("redis dedup backend requires a redis URL")
		}
		s, err := seenstore.NewRedisSeenStore(config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("initializing redis seenstore: %v", err)
		}
		return s, nil
	case "sql":
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("sql dedup backend requires a database URL")
		}
		db, err := cliutil.SetupDatabase(config.DatabaseURL, config.MaxDBConns)
		if err != nil {
			return nil, err
		}
		s, err := seenstore.NewSQLSeenStore(db)
		if err != nil {
			return nil, fmt.Errorf("initializing sql seenstore: %v", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown dedup backend: %s", backend)
	}
}

func (s *Server) RunMetrics(ctx context.Context, listen string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return serveUntilDone(ctx, &http.Server{Addr: listen, Handler: mux})
}

// Runs the mod-log consumer, cursor persistence, and HTTP servers, until the context is cancelled or one of them fails.
func (s *Server) Run(ctx context.Context, bind, metricsListen string) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.consumer.Run(ctx)
	})
	g.Go(func() error {
		return s.consumer.RunPersistCursor(ctx)
	})
	g.Go(func() error {
		if err := s.RunMetrics(ctx, metricsListen); err != nil {
			return fmt.Errorf("metrics endpoint: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := s.RunAdmin(ctx, bind); err != nil {
			return fmt.Errorf("admin endpoint: %w", err)
		}
		return nil
	})

	err := g.Wait()
	if s.rdb != nil {
		s.rdb.Close()
	}
	return err
}

func serveUntilDone(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
