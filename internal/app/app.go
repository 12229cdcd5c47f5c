package app

import (
	"context"
	"fmt"

	"upload-registry/config"
	"upload-registry/internal/domain/upload"
	"upload-registry/internal/redis"
	"upload-registry/internal/repository"
	"upload-registry/internal/residence"
	"upload-registry/internal/services"
	"upload-registry/internal/storage"
	"upload-registry/pkg/database"
	"upload-registry/pkg/logger"

	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// App holds the wired services shared by the API server and uploadctl.
type App struct {
	Config     *config.Config
	Logger     *logger.Logger
	Repo       repository.UploadRepository
	Uploads    *services.UploadService
	Cleanup    *services.CleanupService
	Retention  *services.RetentionService
	Auth       *services.AuthService
	Residences *residence.Registry
	Limiter    *redis.RateLimiter

	db          *gorm.DB
	redisClient *goredis.Client
}

// Build connects the configured record store and residences. Call Close when
// done.
func Build(ctx context.Context, cfg *config.Config, l *logger.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if l == nil {
		l = logger.Nop()
	}
	a := &App{Config: cfg, Logger: l}

	repo, err := a.openStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Repo = repo

	a.Residences = residence.NewRegistry()
	if cfg.S3Enabled() {
		if err := a.registerS3(ctx); err != nil {
			a.Close()
			return nil, err
		}
	} else {
		l.Warnf("S3 residence not configured, cleanup will report unresolved residences")
	}

	if cfg.RateLimitEnabled() {
		a.Limiter = redis.NewRateLimiter(a.redis(), redis.RateLimitConfig{
			WriteLimit:  cfg.RateLimitWrites,
			WriteWindow: cfg.RateLimitWindow,
		})
	}

	a.Uploads = services.NewUploadService(repo, l, cfg.UpdateMaxRetries)
	a.Cleanup = services.NewCleanupService(a.Uploads, a.Residences, l)
	a.Auth = services.NewAuthService(cfg.JWTSecret, 0)

	a.Retention, err = services.NewRetentionService(a.Uploads, a.Cleanup, services.RetentionConfig{
		MaxAge:   cfg.RetentionMaxAge,
		Interval: cfg.RetentionInterval,
		Action:   cfg.RetentionAction,
	}, l)
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) openStore(ctx context.Context) (repository.UploadRepository, error) {
	switch a.Config.StoreBackend {
	case config.BackendPostgres:
		db, err := database.Connect(a.Config)
		if err != nil {
			return nil, err
		}
		a.db = db
		if err := repository.InitSchema(db); err != nil {
			return nil, fmt.Errorf("failed to migrate schema: %w", err)
		}
		a.Logger.Infof("record store: postgres %s:%s/%s", a.Config.DBHost, a.Config.DBPort, a.Config.DBName)
		return repository.NewUploadRepository(db), nil
	case config.BackendRedis:
		if err := redis.Ping(ctx, a.redis()); err != nil {
			return nil, err
		}
		a.Logger.Infof("record store: redis %s:%s prefix %q", a.Config.RedisHost, a.Config.RedisPort, a.Config.RedisKeyPrefix)
		return repository.NewRedisUploadRepository(a.redis(), a.Config.RedisKeyPrefix), nil
	default:
		a.Logger.Warnf("record store: memory, records are lost on restart")
		return repository.NewMemoryUploadRepository(), nil
	}
}

func (a *App) redis() *goredis.Client {
	if a.redisClient == nil {
		a.redisClient = redis.NewClient(redis.Config{
			Host:     a.Config.RedisHost,
			Port:     a.Config.RedisPort,
			Password: a.Config.RedisPassword,
			DB:       a.Config.RedisDB,
		})
	}
	return a.redisClient
}

// registerS3 registers the bucket under its namespace and location and also
// namespace-wide, so records in that namespace without a location resolve.
func (a *App) registerS3(ctx context.Context) error {
	client, err := storage.NewClient(ctx, storage.S3Config{
		Region:    a.Config.S3Location,
		Bucket:    a.Config.S3Bucket,
		AccessKey: a.Config.S3AccessKey,
		SecretKey: a.Config.S3SecretKey,
		Endpoint:  a.Config.S3Endpoint,
	})
	if err != nil {
		return fmt.Errorf("failed to create s3 client: %w", err)
	}
	namespace := a.Config.S3Namespace
	if namespace == "" {
		namespace = upload.DefaultNamespace
	}
	res := residence.NewS3Residence(client)
	a.Residences.Register(a.Config.S3ProviderName, upload.ResidenceOptions{
		Namespace: namespace,
		Location:  a.Config.S3Location,
	}, res)
	if _, ok := a.Residences.Resolve(a.Config.S3ProviderName, upload.ResidenceOptions{Namespace: namespace}); !ok {
		a.Residences.Register(a.Config.S3ProviderName, upload.ResidenceOptions{Namespace: namespace}, res)
	}
	a.Logger.Infof("residence %s registered: bucket %s in %s/%s", a.Config.S3ProviderName, client.Bucket(), namespace, client.Region())
	return nil
}

func (a *App) Close() {
	if a.Retention != nil {
		a.Retention.Stop()
	}
	if a.db != nil {
		if err := database.Close(a.db); err != nil {
			a.Logger.Warnf("closing database: %v", err)
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.Logger.Warnf("closing redis: %v", err)
		}
	}
}
