package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"mockmate/internal/sessions"
	"mockmate/internal/shared/config"
	"mockmate/internal/stages"
)

func writeCatalog(t *testing.T, dir string, skip string) {
	t.Helper()
	var records []map[string]interface{}
	for _, stage := range stages.Default().StageOrder {
		if stage == skip {
			continue
		}
		for i := 0; i < 12; i++ {
			records = append(records, map[string]interface{}{
				"id":       fmt.Sprintf("%s-%d", stage, i),
				"question": fmt.Sprintf("%s question %d", stage, i),
				"stage":    stage,
				"role":     "any",
			})
		}
	}
	data, err := json.Marshal(records)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "questions.json"), data, 0o644))
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	v := config.New()
	cfg := config.Load(v)
	cfg.CatalogStore = "local"
	cfg.CatalogDir = t.TempDir()
	cfg.SessionsBackend = "memory"
	cfg.UsageBackend = "memory"
	cfg.LLMProvider = "none"
	cfg.DatabaseURL = ""
	cfg.SQSQueueURL = ""
	return cfg
}

func TestBuildServesInterview(t *testing.T) {
	cfg := testConfig(t)
	writeCatalog(t, cfg.CatalogDir, "")

	app, err := Build(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer app.Close()

	assert.Equal(t, 84, app.Catalog.Len())
	assert.Nil(t, app.DB)
	assert.Nil(t, app.Queue)
	assert.False(t, app.Enricher.Configured())

	w := httptest.NewRecorder()
	app.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := bytes.NewBufferString(`{"role":"backend","level":"mid"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/interviews", body)
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	app.Router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, 1, app.Manager.Active())

	w = httptest.NewRecorder()
	app.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "mockmate_interviews_started_total 1")
	assert.Contains(t, w.Body.String(), `mockmate_catalog_questions{stage="technical"} 12`)
}

func TestBuildRejectsCatalogWithEmptyStage(t *testing.T) {
	cfg := testConfig(t)
	writeCatalog(t, cfg.CatalogDir, "hr_closing")

	_, err := Build(context.Background(), cfg, nil)
	require.Error(t, err)
	var ce *stages.ConfigError
	assert.True(t, errors.As(err, &ce))
	assert.Contains(t, err.Error(), "hr_closing")
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.SessionsBackend = "postgres"

	_, err := Build(context.Background(), cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database_url")
}

func TestBuildSessionsFileBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.SessionsBackend = "file"
	cfg.SessionsDir = t.TempDir()

	svc, closeFn, err := BuildSessions(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer closeFn()

	_, err = svc.Create(context.Background(), "s-1", sessions.Meta{UserID: "u1", Role: "backend", Level: "mid"})
	require.NoError(t, err)
	entries, err := os.ReadDir(cfg.SessionsDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
