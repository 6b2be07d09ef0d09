package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"workshop/api/internal/ai"
	"workshop/api/internal/app"
	"workshop/api/internal/config"
	"workshop/api/internal/export"
	"workshop/api/internal/history"
	"workshop/api/internal/logging"
	"workshop/api/internal/search"
	"workshop/api/internal/session"
	"workshop/api/internal/store"
	"workshop/api/internal/workshop"
)

type runtime struct {
	cfg     config.Config
	log     *logrus.Logger
	service *app.Service
	search  *search.Service
	closers []func()
}

func (r *runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

func loadConfig(envFile string, logOutput io.Writer) (config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return config.Config{}, nil, err
	}
	log := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
		Output: logOutput,
	})
	return cfg, log, nil
}

// openRepository selects the session repository for cfg.StoreDriver. SQL
// drivers get their migrations applied.
func openRepository(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (store.Repository, func(), error) {
	switch cfg.StoreDriver {
	case "memory":
		log.Warn("using in-memory repository; sessions are lost on restart")
		return store.NewMemoryStore(), func() {}, nil
	case "redis":
		redisStore, err := session.NewRedisStore(cfg.RedisURL, cfg.RedisTTL)
		if err != nil {
			return nil, nil, fmt.Errorf("redis connection failed: %w", err)
		}
		return redisStore, func() { _ = redisStore.Close() }, nil
	default:
		dialect, err := store.ParseDialect(cfg.StoreDriver)
		if err != nil {
			return nil, nil, err
		}
		dsn := cfg.DatabaseURL
		if dialect == store.DialectSQLite {
			dsn = cfg.SQLitePath
		}
		db, err := store.Open(ctx, dialect, dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("database connection failed: %w", err)
		}
		if err := store.ApplyMigrations(ctx, db, dialect); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("migrations failed: %w", err)
		}
		return store.NewSQLStore(db, dialect), func() { _ = db.Close() }, nil
	}
}

func bootstrap(ctx context.Context, envFile string, logOutput io.Writer) (*runtime, error) {
	cfg, log, err := loadConfig(envFile, logOutput)
	if err != nil {
		return nil, err
	}
	rt := &runtime{cfg: cfg, log: log}

	repo, closeRepo, err := openRepository(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	rt.closers = append(rt.closers, closeRepo)
	log.WithField("driver", cfg.StoreDriver).Info("session repository ready")

	catalog := workshop.DefaultCatalog()
	if path := strings.TrimSpace(cfg.CatalogPath); path != "" {
		catalog, err = workshop.LoadCatalog(path)
		if err != nil {
			rt.Close()
			return nil, err
		}
		log.WithField("path", path).Info("loaded catalog")
	}

	var grouper workshop.Grouper
	var analyzer workshop.Analyzer
	if key := strings.TrimSpace(cfg.GeminiAPIKey); key != "" {
		gemini, err := ai.NewGeminiGrouper(ctx, key, cfg.GeminiModel)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("gemini client: %w", err)
		}
		grouper = gemini
		analyzer = gemini
		log.WithField("model", cfg.GeminiModel).Info("ai grouping enabled")
	} else {
		log.Warn("GEMINI_API_KEY not set; grouping uses the keyword classifier")
	}

	var meili *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meili = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey, log)
		rt.closers = append(rt.closers, meili.Close)
	}
	rt.search = search.NewService(meili, search.NewScanner(repo), log)

	var artifacts *export.ArtifactStore
	if strings.TrimSpace(cfg.MinioEndpoint) != "" {
		artifacts, err = export.NewArtifactStore(export.StorageConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("artifact store: %w", err)
		}
		if err := artifacts.EnsureBucket(ctx); err != nil {
			log.WithError(err).Warn("artifact bucket unavailable; deck uploads will fail")
		}
	}

	var recorder *history.Service
	if dir := strings.TrimSpace(cfg.HistoryDir); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			rt.Close()
			return nil, fmt.Errorf("create history dir: %w", err)
		}
		recorder = history.New(dir)
	}

	rt.service = app.New(app.Options{
		Repository:      repo,
		Grouper:         grouper,
		Analyzer:        analyzer,
		Catalog:         catalog,
		Fallback:        cfg.GroupingFallback,
		GroupingTimeout: cfg.GroupingTimeout,
		History:         recorder,
		Search:          rt.search,
		Artifacts:       artifacts,
		Logger:          log,
	})
	return rt, nil
}
