package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bakeryops/bakery-maint/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.HTTP.Addr = "127.0.0.1:0"
	cfg.Database.Path = filepath.Join(t.TempDir(), "data", "app.db")
	cfg.Logging.Level = "error"
	return cfg
}

func TestApp_StartServeStop(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.Bootstrap = true
	cfg.Database.VerifySchema = config.VerifyStrict

	a, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, a.Start(context.Background()))
	assert.Error(t, a.Start(context.Background()))

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/stores",
		strings.NewReader(`{"Store_Name":"Bondi","Region":"East"}`)))
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"connected"`)

	require.NoError(t, a.Stop(context.Background()))
	require.NoError(t, a.Stop(context.Background()))

	rec = httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestApp_StrictVerifyRejectsMissingTables(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.VerifySchema = config.VerifyStrict

	a, err := New(cfg)
	require.NoError(t, err)
	err = a.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "blocking differences")
}

func TestApp_WarnVerifyStarts(t *testing.T) {
	cfg := testConfig(t)

	a, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, a.Start(context.Background()))
	require.NoError(t, a.Stop(context.Background()))
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.Driver = "oracle"

	_, err := New(cfg)
	assert.Error(t, err)
}
