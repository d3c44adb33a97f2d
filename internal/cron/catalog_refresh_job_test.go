package cron

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/tillworks/tillpoint-backend/internal/catalog"
	"github.com/tillworks/tillpoint-backend/internal/pos"
	"github.com/tillworks/tillpoint-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.ErrorLevel, Output: io.Discard})
}

type stubCatalog struct {
	products    []pos.Product
	productsErr error
	chargesErr  error
	methodsErr  error
	gatesErr    error
}

func (s *stubCatalog) Products(context.Context) ([]pos.Product, error) {
	return s.products, s.productsErr
}

func (s *stubCatalog) OtherChargeTypes(context.Context) ([]catalog.OtherChargeType, error) {
	return nil, s.chargesErr
}

func (s *stubCatalog) PaymentMethods(context.Context) ([]catalog.PaymentMethodDef, error) {
	return nil, s.methodsErr
}

func (s *stubCatalog) CarGates(context.Context) ([]catalog.CarGate, error) {
	return nil, s.gatesErr
}

type recordingSyncer struct {
	synced [][]pos.Product
}

func (r *recordingSyncer) SyncProducts(products []pos.Product) int {
	r.synced = append(r.synced, products)
	return len(products)
}

func TestCatalogRefreshJobSyncsProducts(t *testing.T) {
	t.Parallel()

	store := &recordingSyncer{}
	job, err := NewCatalogRefreshJob(CatalogRefreshJobParams{
		Logger: testLogger(),
		Catalog: &stubCatalog{
			products: []pos.Product{{ID: 1, Name: "Cement", Price: decimal.NewFromInt(1000)}},
		},
		Store: store,
	})
	if err != nil {
		t.Fatalf("NewCatalogRefreshJob: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(store.synced) != 1 {
		t.Fatalf("expected one sync, got %d", len(store.synced))
	}
}

func TestCatalogRefreshJobCollectsPartialFailures(t *testing.T) {
	t.Parallel()

	store := &recordingSyncer{}
	job, err := NewCatalogRefreshJob(CatalogRefreshJobParams{
		Logger: testLogger(),
		Catalog: &stubCatalog{
			products:   []pos.Product{{ID: 1, Name: "Cement"}},
			methodsErr: errors.New("methods endpoint down"),
			gatesErr:   errors.New("gates endpoint down"),
		},
		Store: store,
	})
	if err != nil {
		t.Fatalf("NewCatalogRefreshJob: %v", err)
	}

	runErr := job.Run(context.Background())
	if runErr == nil {
		t.Fatal("expected combined error")
	}
	if len(store.synced) != 1 {
		t.Fatalf("product sync must still run, got %d syncs", len(store.synced))
	}
}

func TestCatalogRefreshJobRequiresDependencies(t *testing.T) {
	t.Parallel()

	if _, err := NewCatalogRefreshJob(CatalogRefreshJobParams{}); err == nil {
		t.Fatal("expected error for missing dependencies")
	}
}
