package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"cineflix/proj/internal/config"
	"cineflix/proj/internal/lib/logger"
	"cineflix/proj/internal/repositories"
	"cineflix/proj/internal/storage"
	"cineflix/proj/internal/storage/memory"

	"github.com/stretchr/testify/require"
)

type fakeAssets struct {
	mu    sync.Mutex
	saved map[string][]byte
}

func (f *fakeAssets) Save(_ context.Context, name string, r io.Reader) (string, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved[name] = body
	return "https://cdn.cineflix.test/" + name, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Limiter: config.Limiter{Enabled: false, Rps: 2, Burst: 2},
		CORS:    config.CORS{AllowedOrigins: []string{"*"}},
		Store:   config.Store{Driver: config.DriverMemory, WriteRetries: 3},
		Assets:  config.Assets{MaxUploadBytes: 4096},
		Player:  config.Player{ResumeThreshold: 30 * time.Second, SaveInterval: 10 * time.Second},
		Checkout: config.Checkout{
			YearlyDiscount: 0.2,
			WorkflowTTL:    time.Hour,
		},
		Tasks: config.Tasks{Workers: 1, QueueSize: 10},
	}
}

// NewTestApplication builds an application over a seeded in-memory store.
// A nil store gets a fresh one.
func NewTestApplication(store storage.Store, t *testing.T) (*Application, *fakeAssets) {
	t.Helper()
	if store == nil {
		store = memory.New()
	}
	repos := repositories.New(logger.Discard(), store, repositories.Options{WriteRetries: 3})
	require.NoError(t, repos.Seed(context.Background(), logger.Discard()))
	assets := &fakeAssets{saved: map[string][]byte{}}
	app := NewApplication(testConfig(), logger.Discard(), store, assets)
	return app, assets
}

type testResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data"`
}

func doRequest(t *testing.T, handler http.Handler, method, target string, body any) (int, testResponse) {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		reader = bytes.NewReader(b)
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var resp testResponse
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	}
	return rec.Code, resp
}
