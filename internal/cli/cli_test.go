package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Wikid82/chimera/backend/internal/config"
	"github.com/Wikid82/chimera/backend/internal/logger"
	"github.com/Wikid82/chimera/backend/internal/version"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSubcommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "simulate", "hash-token", "version"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)

	var info version.Info
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, version.Name, info.Service)
	assert.Equal(t, version.Version, info.Version)
}

func TestHashTokenCommand(t *testing.T) {
	out, err := execute(t, "hash-token", "s3cret")
	require.NoError(t, err)

	hash := strings.TrimSpace(out)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")))
}

func TestHashTokenCommand_RequiresArg(t *testing.T) {
	_, err := execute(t, "hash-token")
	assert.Error(t, err)
}

func TestSimulateCommand(t *testing.T) {
	var hits atomic.Int32
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/request", r.URL.Path)
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"status":"threat_detected","redirect":"/decoy/MUT-0001"}`)
	}))
	defer target.Close()

	out, err := execute(t, "simulate", "--type", "sql_injection", "--target", target.URL+"/")
	require.NoError(t, err)

	var body struct {
		Results []struct {
			IP       string `json:"ip"`
			Payload  string `json:"payload"`
			Response struct {
				Status string `json:"status"`
			} `json:"response"`
		} `json:"results"`
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	assert.Equal(t, 5, body.Count)
	assert.Equal(t, int32(5), hits.Load())
	for _, r := range body.Results {
		assert.True(t, strings.HasPrefix(r.IP, "192.168.1."))
		assert.Equal(t, "threat_detected", r.Response.Status)
	}
}

func TestSimulateCommand_TargetDown(t *testing.T) {
	target := httptest.NewServer(http.NotFoundHandler())
	url := target.URL
	target.Close()

	out, err := execute(t, "simulate", "--type", "sql_injection", "--target", url)
	require.NoError(t, err)
	assert.Contains(t, out, `"error"`)
	assert.Contains(t, out, `"count": 5`)
}

func TestSimulateCommand_UnknownType(t *testing.T) {
	_, err := execute(t, "simulate", "--type", "smurf", "--target", "http://127.0.0.1:1")
	assert.ErrorContains(t, err, "unknown attack type")
}

func TestSetupLogging(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	var stdout bytes.Buffer

	closer, err := setupLogging(config.Config{LogDir: dir}, &stdout)
	require.NoError(t, err)
	t.Cleanup(func() { logger.Init(false, os.Stderr) })

	logger.Log().Info("rotated line")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(filepath.Join(dir, logFileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "rotated line")
	assert.Contains(t, stdout.String(), "rotated line")
}

func TestSetupLogging_BadDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	_, err := setupLogging(config.Config{LogDir: filepath.Join(file, "logs")}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestServe_StopsOnCancel(t *testing.T) {
	cfg := config.Config{
		Environment: "development",
		HTTPPort:    "0",
		Detection: config.DetectionConfig{
			RateWindow:    10 * time.Second,
			RateThreshold: 20,
		},
		Audit:    config.AuditConfig{DSN: fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())},
		Schedule: config.ScheduleConfig{Sweep: "@every 1m"},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, cfg) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return")
	}
}

func TestServe_BadSchedule(t *testing.T) {
	cfg := config.Config{
		HTTPPort: "0",
		Detection: config.DetectionConfig{
			RateWindow:    10 * time.Second,
			RateThreshold: 20,
		},
		Audit:    config.AuditConfig{DSN: fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())},
		Schedule: config.ScheduleConfig{Sweep: "not a spec"},
	}
	err := serve(context.Background(), cfg)
	assert.Error(t, err)
}
