package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/wonny/fundpilot/internal/advisory"
	"github.com/wonny/fundpilot/internal/assetprofile"
	"github.com/wonny/fundpilot/internal/contracts"
	"github.com/wonny/fundpilot/internal/engine"
	"github.com/wonny/fundpilot/internal/external/eastmoney"
	"github.com/wonny/fundpilot/internal/history"
	"github.com/wonny/fundpilot/pkg/config"
	"github.com/wonny/fundpilot/pkg/database"
	"github.com/wonny/fundpilot/pkg/logger"
	"github.com/wonny/fundpilot/pkg/redis"
)

// app bundles everything a command needs after bootstrap
type app struct {
	cfg          *config.Config
	log          *logger.Logger
	profiles     *assetprofile.Config
	profilesHash string
	engine       *engine.Engine

	db    *database.DB // nil when DATABASE_URL is unset
	redis *redis.Client
}

// close releases the app's connections
func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}

// bootstrap loads config and wires the decision engine with its
// collaborators. quantOnly drops the advisory track entirely.
//
// Postgres is optional: without DATABASE_URL the NAV history comes
// straight from the provider on every run. Redis is optional the same
// way (the client degrades to a no-op).
func bootstrap(quantOnly bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	profiles, hash, err := loadProfiles(cfg.Engine.ProfilesPath, log)
	if err != nil {
		return nil, err
	}

	redisClient, err := redis.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	cache := redis.NewCache(redisClient, "fundpilot")

	dataClient := eastmoney.New(cfg.Eastmoney, cache, log)

	var prices contracts.PriceProvider = dataClient
	var db *database.DB
	if cfg.Database.URL != "" {
		db, err = database.New(cfg)
		if err != nil {
			_ = redisClient.Close()
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		repo := history.NewRepository(db, log)
		prices = history.NewProvider(repo, dataClient, log)
		log.Info("NAV history backed by Postgres")
	} else {
		log.Warn("DATABASE_URL not set, NAV history served without a backing store")
	}

	var advisoryProvider contracts.AdvisoryProvider
	switch {
	case quantOnly:
		log.Info("Advisory track disabled (--quant-only)")
	case cfg.Advisory.APIKey == "":
		log.Warn("ADVISORY_API_KEY not set, all decisions will be quant-only")
	default:
		limiter := redis.NewRateLimiter(redisClient, "fundpilot")
		advisoryProvider = advisory.NewClient(cfg.Advisory, limiter, log)
	}

	eng := engine.New(engine.Options{
		Profiles:        profiles,
		Prices:          prices,
		Holdings:        dataClient,
		Advisory:        advisoryProvider,
		HistoryDays:     cfg.Engine.HistoryDays,
		AdvisoryTimeout: cfg.Advisory.Timeout,
	}, log)

	return &app{
		cfg:          cfg,
		log:          log,
		profiles:     profiles,
		profilesHash: hash,
		engine:       eng,
		db:           db,
		redis:        redisClient,
	}, nil
}

// loadProfiles reads the strategy YAML, falling back to the built-in
// defaults when no file exists at the configured path
func loadProfiles(path string, log *logger.Logger) (*assetprofile.Config, string, error) {
	profiles, err := assetprofile.Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.WithField("path", path).Warn("Profiles file not found, using built-in defaults")
			profiles = assetprofile.Default()
		} else {
			return nil, "", fmt.Errorf("load profiles: %w", err)
		}
	}

	hash, err := assetprofile.Hash(profiles)
	if err != nil {
		return nil, "", fmt.Errorf("hash profiles: %w", err)
	}

	log.WithFields(map[string]interface{}{
		"path": path,
		"hash": hash[:12],
	}).Info("Strategy profiles loaded")

	return profiles, hash, nil
}
