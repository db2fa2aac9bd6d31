package inventory_test

import (
	"context"
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
	"github.com/georgemunganga/cardshop-backend/internal/modules/catalog"
	"github.com/georgemunganga/cardshop-backend/internal/modules/inventory"
)

type fixture struct {
	repo    inventory.Repository
	service inventory.Service
	catalog catalog.Service
	audit   audit.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	catalogRepo, err := catalog.NewJSONRepository(dir)
	require.NoError(t, err)
	catalogService := catalog.NewService(catalogRepo)
	for _, id := range []string{"us_10", "us_20"} {
		_, err := catalogService.CreateProduct(ctx, catalog.CreateProductRequest{
			ID: id, Name: "PSN " + id, Region: catalog.RegionUSA, Currency: "RUB", Price: 774,
		})
		require.NoError(t, err)
	}

	auditRepo, err := audit.NewJSONRepository(dir)
	require.NoError(t, err)

	repo := newRepo(t, dir)
	return &fixture{
		repo:    repo,
		service: inventory.NewService(repo, catalogService),
		catalog: catalogService,
		audit:   audit.NewService(auditRepo),
	}
}

func TestCleanCodes(t *testing.T) {
	got := inventory.CleanCodes([]string{" K1 ", "", "K2\n\n K3\r\n", "   "})
	assert.Equal(t, []string{"K1", "K2", "K3"}, got)
}

func TestServiceRestock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	added, count, err := f.service.Restock(ctx, "us_10", []string{"K1\nK2", " "})
	require.NoError(t, err)
	assert.Equal(t, 2, added)
	assert.Equal(t, 2, count)

	_, _, err = f.service.Restock(ctx, "us_10", []string{"", "  "})
	assert.ErrorIs(t, err, inventory.ErrNoKeys)

	_, _, err = f.service.Restock(ctx, "ghost", []string{"K"})
	assert.ErrorIs(t, err, catalog.ErrProductNotFound)
}

func TestStockLevels(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, _, err := f.service.Restock(ctx, "us_10", []string{"1", "2", "3", "4", "5", "6"})
	require.NoError(t, err)
	_, err = f.repo.Restock(ctx, "legacy", []string{"L1"})
	require.NoError(t, err)

	levels, err := f.service.StockLevels(ctx)
	require.NoError(t, err)
	require.Len(t, levels, 3)
	assert.Equal(t, inventory.StockLevel{ProductID: "us_10", Name: "PSN us_10", Count: 6, Status: inventory.StatusOK}, levels[0])
	assert.Equal(t, inventory.StatusEmpty, levels[1].Status)
	assert.Equal(t, "legacy", levels[2].ProductID)
	assert.Equal(t, inventory.StatusLow, levels[2].Status)
}

func TestRestockHandler(t *testing.T) {
	f := newFixture(t)
	r := chi.NewRouter()
	inventory.NewHandler(f.service, f.audit, log.New(io.Discard, "", 0)).RegisterAdminRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/inventory/us_10/keys", strings.NewReader(`{"keys":["A","B"]}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"product_id":"us_10","added":2,"count":2}`, rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/inventory/ghost/keys", strings.NewReader(`{"keys":["A"]}`)))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/inventory/us_10/keys", strings.NewReader(`{"keys":[]}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/inventory", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":2`)

	entries, err := f.audit.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, audit.ActionRestock, entries[0].Action)
}
