package catalog_test

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/georgemunganga/cardshop-backend/internal/modules/audit"
	"github.com/georgemunganga/cardshop-backend/internal/modules/auth"
	"github.com/georgemunganga/cardshop-backend/internal/modules/catalog"
)

func newRouter(t *testing.T) (*chi.Mux, audit.Service) {
	t.Helper()
	dir := t.TempDir()
	svc := newService(t, dir)
	_, err := svc.CreateProduct(context.Background(), usTen())
	require.NoError(t, err)

	auditRepo, err := audit.NewJSONRepository(dir)
	require.NoError(t, err)
	auditService := audit.NewService(auditRepo)

	h := catalog.NewHandler(svc, auditService, log.New(io.Discard, "", 0))
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		h.RegisterRoutes(r)
		r.Route("/admin", func(r chi.Router) {
			r.Use(func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					next.ServeHTTP(w, r.WithContext(auth.WithActor(r.Context(), "admin")))
				})
			})
			h.RegisterAdminRoutes(r)
		})
	})
	return r, auditService
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, path, reader))
	return rec
}

func TestPublicProductRoutes(t *testing.T) {
	r, _ := newRouter(t)

	rec := do(r, http.MethodGet, "/api/products", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var products []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &products))
	require.Len(t, products, 1)
	assert.Equal(t, "us_10", products[0]["id"])
	assert.EqualValues(t, 860, products[0]["original_price"])

	rec = do(r, http.MethodGet, "/api/products/us_10", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(r, http.MethodGet, "/api/products/unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(r, http.MethodGet, "/api/products?region=Mars", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminProductRoutesAreAudited(t *testing.T) {
	r, auditService := newRouter(t)

	rec := do(r, http.MethodPatch, "/api/admin/products/us_10/price", `{"price":900}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"price":900`)

	rec = do(r, http.MethodPatch, "/api/admin/products/us_10/discount", `{"discount":150}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(r, http.MethodPost, "/api/admin/products",
		`{"id":"tr_250","name":"PSN 250 TRY","region":"Turkey","currency":"RUB","price":1100}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = do(r, http.MethodDelete, "/api/admin/products/us_10", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(r, http.MethodGet, "/api/products/us_10", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	entries, err := auditService.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, audit.ActionArchiveProduct, entries[0].Action)
	assert.Equal(t, "admin", entries[0].Actor)
}
