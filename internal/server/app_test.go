package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/abidm-bit/riceKrispies/internal/logging"
	"github.com/abidm-bit/riceKrispies/internal/server/config"
	"github.com/abidm-bit/riceKrispies/internal/server/httpapi"
)

const seedCSV = "Product Key\nAAAAA-BBBBB-CCCCC-DDDDD-EEEEE\nFFFFF-GGGGG-HHHHH-JJJJJ-KKKKK\n"

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	seed := filepath.Join(t.TempDir(), "keys.csv")
	require.NoError(t, os.WriteFile(seed, []byte(seedCSV), 0o600))

	c := &config.Config{}
	c.LoadDefaults()
	c.SecretKey = "test-secret"
	c.BcryptCost = 4
	c.KeysSeedSource = seed
	c.SeedBatchRPS = 1000
	c.HealthProbeInterval = 20 * time.Millisecond
	c.ShutdownTimeout = time.Second
	return c
}

type runningApp struct {
	baseURL  string
	grpcAddr string
	done     chan error
	cancel   context.CancelFunc
}

func start(t *testing.T, app *App) *runningApp {
	t.Helper()

	httpLis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	grpcLis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	r := &runningApp{
		baseURL:  "http://" + httpLis.Addr().String(),
		grpcAddr: grpcLis.Addr().String(),
		done:     make(chan error, 1),
		cancel:   cancel,
	}
	go func() { r.done <- app.Serve(ctx, httpLis, grpcLis) }()

	t.Cleanup(func() {
		cancel()
		select {
		case <-r.done:
		case <-time.After(5 * time.Second):
			t.Error("app did not stop")
		}
		_ = app.Close()
	})
	return r
}

func post(t *testing.T, url, token, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestNewApp_RequiresSecret(t *testing.T) {
	c := testConfig(t)
	c.SecretKey = ""

	_, err := NewApp(context.Background(), c, logging.Discard())
	assert.Error(t, err)
}

func TestNewApp_BadSeedSource(t *testing.T) {
	c := testConfig(t)
	c.KeysSeedSource = filepath.Join(t.TempDir(), "missing.csv")

	_, err := NewApp(context.Background(), c, logging.Discard())
	assert.Error(t, err)
}

func TestApp_EndToEnd(t *testing.T) {
	app, err := NewApp(context.Background(), testConfig(t), logging.Discard())
	require.NoError(t, err)
	r := start(t, app)

	creds := `{"email":"a@b.c","password":"Passw0rd!"}`

	resp := post(t, r.baseURL+httpapi.PathRegister, "", creds)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = post(t, r.baseURL+httpapi.PathLogin, "", creds)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var login httpapi.LoginResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&login))
	require.NotEmpty(t, login.JWTToken)

	seen := map[string]bool{}
	for range 2 {
		resp = post(t, r.baseURL+httpapi.PathFetchKeys, login.JWTToken, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var key httpapi.FetchKeyResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&key))
		assert.Equal(t, login.UserID, key.UserID)
		assert.False(t, seen[key.Key], "key issued twice")
		seen[key.Key] = true
	}

	resp = post(t, r.baseURL+httpapi.PathFetchKeys, login.JWTToken, "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestApp_HealthReportsKeyPool(t *testing.T) {
	c := testConfig(t)
	c.KeysSeedSource = ""

	app, err := NewApp(context.Background(), c, logging.Discard())
	require.NoError(t, err)
	r := start(t, app)

	conn, err := grpc.NewClient(r.grpcAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()
	client := healthpb.NewHealthClient(conn)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.Eventually(t, func() bool {
		resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{})
		return err == nil && resp.GetStatus() == healthpb.HealthCheckResponse_SERVING
	}, 3*time.Second, 20*time.Millisecond)

	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: "keys"})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus())
}

func TestApp_RedisStats(t *testing.T) {
	mr := miniredis.RunT(t)

	c := testConfig(t)
	c.RedisAddr = mr.Addr()
	c.RedisStatsPrefix = "rk"

	app, err := NewApp(context.Background(), c, logging.Discard())
	require.NoError(t, err)
	r := start(t, app)

	resp := post(t, r.baseURL+httpapi.PathLogin, "", `{"email":"nobody@b.c","password":"Passw0rd!"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	assert.Equal(t, "1", mr.HGet("rk:total", "allowed"))
	assert.Equal(t, "1", mr.HGet("rk:class", "login:allowed"))
}

func TestApp_ServeStopsOnCancel(t *testing.T) {
	c := testConfig(t)
	c.KeysSeedSource = ""
	app, err := NewApp(context.Background(), c, logging.Discard())
	require.NoError(t, err)
	defer app.Close()

	httpLis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	grpcLis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Serve(ctx, httpLis, grpcLis) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return")
	}
}
