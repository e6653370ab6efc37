package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"construction_estimator/internal/adapter/http/handlers/mocks"
	"construction_estimator/internal/config"
	"construction_estimator/internal/domain/entities"

	"github.com/gin-gonic/gin"
	"go.uber.org/mock/gomock"
)

func TestNewRouter_RegistersRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	uc := mocks.NewMockIEstimateUseCase(ctrl)
	uc.EXPECT().GetByID(gomock.Any(), int64(1)).Return(entities.Estimate{ID: 1, Status: entities.EstimateStatusFinal}, nil)

	r := NewRouter(uc)

	for _, path := range []string{"/healthz", "/v1/ping", "/v1/estimates/1"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, w.Code)
		}
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/v1/estimates/1", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unregistered route, got %d", w.Code)
	}
}

func TestBuildEstimateUseCase_SQLiteWithoutAI(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := config.Config{
		Server: config.ServerConfig{Port: 8080},
		Store:  config.StoreConfig{Driver: config.DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "e.db")},
	}

	uc, closeStore, err := BuildEstimateUseCase(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer closeStore()

	r := NewRouter(uc)

	w := httptest.NewRecorder()
	body := bytes.NewBufferString(`{"rooms":[{"name":"Kitchen","area_sqft":150,"finish":"premium"},{"name":"Bath","area_sqft":80,"finish":"standard"}]}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/estimates", body)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var created map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &created)
	if created["subtotal"] != 50400.0 || created["status"] != "final" {
		t.Fatalf("unexpected estimate: %s", w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/estimates", nil))
	var list []map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if w.Code != http.StatusOK || len(list) != 1 {
		t.Fatalf("unexpected list: %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/estimates/99/status", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
