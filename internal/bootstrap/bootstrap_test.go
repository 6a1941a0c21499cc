package bootstrap

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/mansoorceksport/mobipent/internal/config"
	"github.com/mansoorceksport/mobipent/internal/domain"
	"github.com/mansoorceksport/mobipent/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("API_URL", "http://127.0.0.1:1")
	cfg := config.FromEnv()
	cfg.Credential.Backend = "file"
	cfg.Credential.File = filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestNewWithoutHistory(t *testing.T) {
	cfg := testConfig(t)

	c, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer c.Close()

	assert.False(t, c.History.Enabled())
	assert.False(t, c.Session.LoggedIn())

	require.NoError(t, c.Session.SetToken("T1"))
	assert.FileExists(t, cfg.Credential.File)
}

func TestNewWithKeyringCredentials(t *testing.T) {
	keyring.MockInit()
	cfg := testConfig(t)
	cfg.Credential.Backend = "keyring"

	c, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Session.SetToken("T1"))

	stored, err := keyring.Get(repository.KeyringService, domain.CredentialTokenKey)
	require.NoError(t, err)
	assert.Equal(t, "T1", stored)
	assert.NoFileExists(t, cfg.Credential.File)
}

func TestNewWithRedisHistory(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.History.Backend = "redis"
	cfg.Redis.Addr = mr.Addr()

	c, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer c.Close()

	require.True(t, c.History.Enabled())
	entries, err := c.History.Recent(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestNewFailsWhenRedisDown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	cfg := testConfig(t)
	cfg.History.Backend = "redis"
	cfg.Redis.Addr = addr

	_, err = New(context.Background(), cfg)
	assert.ErrorContains(t, err, "failed to connect to Redis")
}

func TestUploadWithoutTokenInStrictMode(t *testing.T) {
	cfg := testConfig(t)
	cfg.API.RequireToken = true

	c, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Uploads.Upload(context.Background(), domain.FileDescriptor{URI: "/tmp/x.apk"}, domain.ToolStaticAnalysis)
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
}

func TestTelemetryDisabledShutdown(t *testing.T) {
	cfg := testConfig(t)
	stop := Telemetry(context.Background(), cfg)
	assert.NotPanics(t, stop)
}
