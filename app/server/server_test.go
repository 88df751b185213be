package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"todo-dag/app/config"
	"todo-dag/app/logging"
)

func memoryConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Store.Kind = config.StoreMemory
	cfg.Schedule.Timezone = "UTC"
	return cfg
}

func TestOpenStore_MemorySeed(t *testing.T) {
	seed := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(seed, []byte(`
tasks:
  - id: 4
    title: Plan
    created_at: 2024-03-01T09:00:00Z
`), 0o600))

	cfg := memoryConfig(t)
	cfg.Store.Seed = seed
	st, err := OpenStore(context.Background(), cfg)
	require.NoError(t, err)

	task, err := st.GetTask(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, "Plan", task.Title)
}

func TestOpenStore_UnknownKind(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.Store.Kind = "sqlite"
	_, err := OpenStore(context.Background(), cfg)
	assert.ErrorContains(t, err, `unknown store kind "sqlite"`)
}

func TestNewTaskService_BadTimezone(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.Schedule.Timezone = "Mars/Olympus_Mons"
	st, err := OpenStore(context.Background(), cfg)
	require.NoError(t, err)
	_, err = NewTaskService(cfg, st)
	assert.Error(t, err)
}

func TestServe_GracefulShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(logging.WithLogger(context.Background(), zap.NewNop()))
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "ok")
	})
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, ln, handler, time.Second) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.Schedule.Step = -time.Hour
	err := Run(context.Background(), cfg, zap.NewNop())
	assert.ErrorContains(t, err, "schedule.step")
}
