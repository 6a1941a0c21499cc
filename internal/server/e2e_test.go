package server

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/mansoorceksport/mobipent/internal/domain"
	"github.com/mansoorceksport/mobipent/internal/infrastructure/mobipent"
	"github.com/mansoorceksport/mobipent/internal/repository"
	"github.com/mansoorceksport/mobipent/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startDevServer serves a fresh dev backend on a loopback port and returns its base URL
func startDevServer(t *testing.T) string {
	t.Helper()
	app := newTestApp()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	return "http://" + ln.Addr().String()
}

func TestGoldenPath(t *testing.T) {
	ctx := context.Background()
	baseURL := startDevServer(t)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer redisClient.Close()

	client := mobipent.NewClient(mobipent.Config{BaseURL: baseURL})
	session := service.NewSession(repository.NewFileCredentialStore(filepath.Join(t.TempDir(), "credentials.json")))
	history := repository.NewRedisHistoryRepository(redisClient, 10)

	auth := service.NewAuthService(client, session)
	uploads := service.NewUploadService(client, session, repository.NewSourceRouter(), history, nil, service.UploadOptions{BatchConcurrency: 2})

	apkPath := filepath.Join(t.TempDir(), "app.apk")
	require.NoError(t, os.WriteFile(apkPath, testAPK(t), 0644))
	file, err := repository.DescribeLocalFile(apkPath)
	require.NoError(t, err)

	// STEP 1: anonymous upload reaches the backend and is rejected there
	_, err = uploads.Upload(ctx, file, domain.ToolStaticAnalysis)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRequestFailed)

	// STEP 2: signup and login
	_, err = auth.Signup(ctx, "a@b.com", "x")
	require.NoError(t, err)
	_, err = auth.Signup(ctx, "a@b.com", "x")
	assert.Equal(t, "Email already registered", service.SignupErrorMessage(err))

	err = auth.Login(ctx, "a@b.com", "wrong")
	assert.Equal(t, service.LoginFailedMessage, service.LoginErrorMessage(err))

	require.NoError(t, auth.Login(ctx, "a@b.com", "x"))
	claims, err := session.Claims()
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", claims.Email())

	// STEP 3: tool run and whole test
	result, err := uploads.RunTool(ctx, file, domain.ToolManifestCheck)
	require.NoError(t, err)
	value := result.Value.(map[string]any)
	assert.Equal(t, domain.ToolManifestCheck, value["tool_used"])
	assert.Equal(t, "app.apk", value["file"])

	result, err = uploads.WholeTest(ctx, file)
	require.NoError(t, err)
	assert.Contains(t, result.Value.(map[string]any), "report")

	// STEP 4: batch
	results := uploads.Batch(ctx, file, []string{domain.ToolRootDetection, domain.ToolNetworkInspection})
	for _, r := range results {
		assert.NoError(t, r.Err, r.Tool)
	}

	// STEP 5: history holds every attempt, newest first
	entries, err := history.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 5)
	assert.Equal(t, "failed", entries[4].Status)
	assert.Equal(t, domain.ToolWholeTest, entries[2].Tool)

	// STEP 6: logout forgets the token
	require.NoError(t, auth.Logout())
	assert.False(t, session.LoggedIn())
}
