package cron

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/tillworks/tillpoint-backend/internal/catalog"
	"github.com/tillworks/tillpoint-backend/internal/pos"
	"github.com/tillworks/tillpoint-backend/pkg/logger"
)

// catalogReader is the catalog surface the refresh job consumes. The
// cached service implements it; reads warm the cache as a side effect.
type catalogReader interface {
	Products(ctx context.Context) ([]pos.Product, error)
	OtherChargeTypes(ctx context.Context) ([]catalog.OtherChargeType, error)
	PaymentMethods(ctx context.Context) ([]catalog.PaymentMethodDef, error)
	CarGates(ctx context.Context) ([]catalog.CarGate, error)
}

// productSyncer is the slice of the tab store the job mutates.
type productSyncer interface {
	SyncProducts(products []pos.Product) int
}

// CatalogRefreshJobParams configure the refresh job.
type CatalogRefreshJobParams struct {
	Logger  *logger.Logger
	Catalog catalogReader
	Store   productSyncer
}

// NewCatalogRefreshJob builds the job that re-reads the catalog,
// warms the reference caches, and folds fresh prices into open tabs.
func NewCatalogRefreshJob(params CatalogRefreshJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog reader required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("tab store required")
	}
	return &catalogRefreshJob{
		logg:    params.Logger,
		catalog: params.Catalog,
		store:   params.Store,
	}, nil
}

type catalogRefreshJob struct {
	logg    *logger.Logger
	catalog catalogReader
	store   productSyncer
}

func (j *catalogRefreshJob) Name() string { return "catalog-refresh" }

// Run fetches every reference set independently so one failing
// endpoint does not starve the others of a refresh.
func (j *catalogRefreshJob) Run(ctx context.Context) error {
	var errs error

	products, err := j.catalog.Products(ctx)
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("products: %w", err))
	} else {
		repriced := j.store.SyncProducts(products)
		logCtx := j.logg.WithFields(ctx, map[string]any{
			"products":       len(products),
			"lines_repriced": repriced,
		})
		j.logg.Info(logCtx, "product sync complete")
	}

	if _, err := j.catalog.OtherChargeTypes(ctx); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("other charge types: %w", err))
	}
	if _, err := j.catalog.PaymentMethods(ctx); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("payment methods: %w", err))
	}
	if _, err := j.catalog.CarGates(ctx); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("car gates: %w", err))
	}

	return errs
}
