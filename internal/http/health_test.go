package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/collections/internal/database"
	"github.com/mrlokans/collections/internal/database/collections"
	"github.com/mrlokans/collections/internal/entities"
	"github.com/mrlokans/collections/internal/progress"
)

func setupHealthTestDB(t *testing.T) *database.Database {
	t.Helper()
	db, err := database.NewSilentDatabase(filepath.Join(t.TempDir(), "health.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func getHealth(t *testing.T, controller *HealthController) (*httptest.ResponseRecorder, HealthResponse) {
	t.Helper()
	router := gin.New()
	router.GET("/health", controller.Status)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	router.ServeHTTP(w, req)

	var response HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return w, response
}

func TestHealthController_Status(t *testing.T) {
	reserved := []string{entities.CollectionNameLiked, entities.CollectionNameMyList, entities.CollectionNameIgnore}

	t.Run("returns healthy when reserved collections exist", func(t *testing.T) {
		db := setupHealthTestDB(t)
		_, err := db.EnsureCollections(reserved...)
		require.NoError(t, err)
		tracker := progress.NewTracker(10, time.Hour)
		tracker.Create(uuid.New(), 3)

		w, response := getHealth(t, NewHealthController(db, collections.NewRepository(db.DB), reserved, tracker, "1.0.0"))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "healthy", response.Status)
		assert.Equal(t, "1.0.0", response.Version)
		assert.Equal(t, "ok", response.Checks["database"])
		assert.Equal(t, "ok", response.Checks["collections"])
		assert.Equal(t, "1 tracked", response.Checks["progress"])
		assert.Contains(t, response.Time, "T")
	})

	t.Run("reports missing reserved collections as degraded", func(t *testing.T) {
		db := setupHealthTestDB(t)
		_, err := db.EnsureCollections(entities.CollectionNameLiked)
		require.NoError(t, err)

		w, response := getHealth(t, NewHealthController(db, collections.NewRepository(db.DB), reserved, nil, "1.0.0"))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "degraded", response.Status)
		assert.Equal(t, "missing: "+entities.CollectionNameMyList+", "+entities.CollectionNameIgnore, response.Checks["collections"])
		assert.Equal(t, "not configured", response.Checks["progress"])
	})

	t.Run("reports missing database", func(t *testing.T) {
		w, response := getHealth(t, NewHealthController(nil, nil, nil, nil, "1.0.0"))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "not configured", response.Checks["database"])
		assert.Equal(t, "not configured", response.Checks["collections"])
	})

	t.Run("returns unhealthy when database connection is closed", func(t *testing.T) {
		db := setupHealthTestDB(t)
		finder := collections.NewRepository(db.DB)
		require.NoError(t, db.Close())

		w, response := getHealth(t, NewHealthController(db, finder, reserved, nil, "1.0.0"))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "unhealthy", response.Status)
		assert.Contains(t, response.Checks["database"], "error")
		assert.Empty(t, response.Checks["collections"])
	})
}
