package app

import (
	"context"
	"testing"
	"time"

	"upload-registry/config"
	"upload-registry/internal/domain/upload"
	registry_errors "upload-registry/pkg/errors"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseConfig() *config.Config {
	return &config.Config{
		StoreBackend:     config.BackendMemory,
		RetentionMaxAge:  time.Hour,
		RetentionAction:  config.RetentionReport,
		UpdateMaxRetries: 2,
		JWTSecret:        "secret",
		S3ProviderName:   "amazon",
		RedisKeyPrefix:   "upload",
	}
}

func TestBuildMemoryWithoutS3(t *testing.T) {
	a, err := Build(context.Background(), baseConfig(), nil)
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.Limiter)
	assert.Equal(t, 0, a.Residences.Len())
	assert.NoError(t, a.Uploads.Ping(context.Background()))
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	cfg := baseConfig()
	cfg.StoreBackend = "cassandra"

	_, err := Build(context.Background(), cfg, nil)
	assert.Error(t, err)
}

func TestBuildRegistersS3Residence(t *testing.T) {
	cfg := baseConfig()
	cfg.S3Location = "eu-central-1"
	cfg.S3Bucket = "media"
	cfg.S3AccessKey = "key"
	cfg.S3SecretKey = "secret"
	cfg.S3Endpoint = "http://127.0.0.1:9000"
	cfg.S3Namespace = "tenant-a"

	a, err := Build(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer a.Close()

	_, ok := a.Residences.Resolve("amazon", upload.ResidenceOptions{Namespace: "tenant-a", Location: "eu-central-1"})
	assert.True(t, ok)
	_, ok = a.Residences.Resolve("amazon", upload.ResidenceOptions{Namespace: "tenant-a"})
	assert.True(t, ok)
	_, ok = a.Residences.Resolve("amazon", upload.ResidenceOptions{Namespace: upload.DefaultNamespace})
	assert.False(t, ok)
	_, ok = a.Residences.Resolve("amazon", upload.ResidenceOptions{Namespace: "tenant-b", Location: "ap-southeast-1"})
	assert.False(t, ok)
	assert.Equal(t, 2, a.Residences.Len())
}

func TestBuildCleanupRejectsForeignNamespace(t *testing.T) {
	ctx := context.Background()
	cfg := baseConfig()
	cfg.S3Location = "eu-central-1"
	cfg.S3Bucket = "media"
	cfg.S3AccessKey = "key"
	cfg.S3SecretKey = "secret"
	cfg.S3Endpoint = "http://127.0.0.1:9000"
	cfg.S3Namespace = "tenant-a"

	a, err := Build(ctx, cfg, nil)
	require.NoError(t, err)
	defer a.Close()

	created, err := a.Uploads.AddEntry(ctx, upload.NewParams{
		UserID: "u1", FileID: "f1", ProviderName: "amazon",
		ProviderNamespace: "tenant-b", ProviderLocation: "ap-southeast-1",
	})
	require.NoError(t, err)

	err = a.Cleanup.Cleanup(ctx, created)
	assert.ErrorIs(t, err, registry_errors.ErrResidenceUnresolved)

	got, err := a.Uploads.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

func TestBuildRegistersDefaultNamespace(t *testing.T) {
	cfg := baseConfig()
	cfg.S3Location = "eu-central-1"
	cfg.S3Bucket = "media"
	cfg.S3AccessKey = "key"
	cfg.S3SecretKey = "secret"
	cfg.S3Endpoint = "http://127.0.0.1:9000"

	a, err := Build(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer a.Close()

	_, ok := a.Residences.Resolve("amazon", upload.ResidenceOptions{Namespace: upload.DefaultNamespace})
	assert.True(t, ok)
	_, ok = a.Residences.Resolve("amazon", upload.ResidenceOptions{Namespace: "tenant-a"})
	assert.False(t, ok)
}

func TestBuildRedisBackendWithRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := baseConfig()
	cfg.StoreBackend = config.BackendRedis
	cfg.RedisHost = mr.Host()
	cfg.RedisPort = mr.Port()
	cfg.RateLimitWrites = 10
	cfg.RateLimitWindow = time.Minute

	a, err := Build(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer a.Close()

	require.NotNil(t, a.Limiter)

	created, err := a.Uploads.AddEntry(context.Background(), upload.NewParams{
		UserID: "u1", FileID: "f1", ProviderName: "amazon",
	})
	require.NoError(t, err)
	assert.True(t, mr.Exists("upload:"+created.ID))
}
