package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tillworks/tillpoint-backend/internal/pos"
	pkgerrors "github.com/tillworks/tillpoint-backend/pkg/errors"
	"github.com/tillworks/tillpoint-backend/pkg/logger"
)

// fetcher is the remote surface the service consumes.
type fetcher interface {
	Products(ctx context.Context) ([]pos.Product, error)
	Customers(ctx context.Context, search string) ([]pos.CustomerRef, error)
	OtherChargeTypes(ctx context.Context) ([]OtherChargeType, error)
	PaymentMethods(ctx context.Context) ([]PaymentMethodDef, error)
	CarGates(ctx context.Context) ([]CarGate, error)
}

// cache is the subset of the redis client the service consumes.
type cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	CacheKey(name string) string
}

// Service serves catalog reads through a short-lived cache so cart
// mutations never wait on the back office.
type Service interface {
	Products(ctx context.Context) ([]pos.Product, error)
	Customers(ctx context.Context, search string) ([]pos.CustomerRef, error)
	OtherChargeTypes(ctx context.Context) ([]OtherChargeType, error)
	PaymentMethods(ctx context.Context) ([]PaymentMethodDef, error)
	CarGates(ctx context.Context) ([]CarGate, error)
}

type service struct {
	remote fetcher
	cache  cache
	ttl    time.Duration
	log    *logger.Logger
}

// NewService wires the cached catalog reader. The cache may be nil,
// which turns every read into a remote fetch.
func NewService(remote fetcher, cache cache, ttl time.Duration, log *logger.Logger) (Service, error) {
	if remote == nil {
		return nil, errors.New("catalog remote client is required")
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &service{remote: remote, cache: cache, ttl: ttl, log: log}, nil
}

func (s *service) Products(ctx context.Context) ([]pos.Product, error) {
	var out []pos.Product
	err := s.cached(ctx, "products", &out, func() (any, error) {
		return s.remote.Products(ctx)
	})
	return out, err
}

// Customers bypasses the cache: search terms make the result set too
// fragmented to be worth key-per-term storage.
func (s *service) Customers(ctx context.Context, search string) ([]pos.CustomerRef, error) {
	return s.remote.Customers(ctx, search)
}

func (s *service) OtherChargeTypes(ctx context.Context) ([]OtherChargeType, error) {
	var out []OtherChargeType
	err := s.cached(ctx, "other_charge_types", &out, func() (any, error) {
		return s.remote.OtherChargeTypes(ctx)
	})
	return out, err
}

func (s *service) PaymentMethods(ctx context.Context) ([]PaymentMethodDef, error) {
	var out []PaymentMethodDef
	err := s.cached(ctx, "payment_methods", &out, func() (any, error) {
		return s.remote.PaymentMethods(ctx)
	})
	return out, err
}

func (s *service) CarGates(ctx context.Context) ([]CarGate, error) {
	var out []CarGate
	err := s.cached(ctx, "car_gates", &out, func() (any, error) {
		return s.remote.CarGates(ctx)
	})
	return out, err
}

// cached reads through the cache, falling back to the remote and
// writing back on a miss. Cache failures degrade to remote reads.
func (s *service) cached(ctx context.Context, name string, out any, fetch func() (any, error)) error {
	if s.cache != nil {
		key := s.cache.CacheKey(name)
		raw, err := s.cache.Get(ctx, key)
		if err == nil {
			if unmarshalErr := json.Unmarshal([]byte(raw), out); unmarshalErr == nil {
				return nil
			}
			// Fall through and refetch on a stale shape.
		} else if !errors.Is(err, redis.Nil) && s.log != nil {
			s.log.Warn(s.log.WithField(ctx, "cache_key", key), "catalog cache read failed")
		}
	}

	fresh, err := fetch()
	if err != nil {
		return err
	}
	payload, err := json.Marshal(fresh)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal catalog payload")
	}
	if s.cache != nil {
		if setErr := s.cache.Set(ctx, s.cache.CacheKey(name), string(payload), s.ttl); setErr != nil && s.log != nil {
			s.log.Warn(s.log.WithField(ctx, "cache_key", name), "catalog cache write failed")
		}
	}
	return json.Unmarshal(payload, out)
}
