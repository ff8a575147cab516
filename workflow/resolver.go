package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mmdatafocus/po_service/models"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
	"gorm.io/datatypes"
)

const (
	entityPlatform      = "platform"
	entityVendor        = "vendor"
	entityLandingRate   = "landing_rate"
	entityPurchaseOrder = "purchase_order"
	entityOrderItem     = "order_item"
)

var errVanishedAfterConflict = errors.New("row missing after duplicate key")

// getOrCreateInStore looks a row up by its natural key and inserts it when
// absent. A duplicate-key insert means someone else won; the winner is
// re-queried once and returned.
func getOrCreateInStore[T any](
	ctx context.Context,
	entity, key string,
	find func(context.Context) (*T, error),
	insert func(context.Context) models.InsertResult[T],
) (*T, error) {
	row, err := find(ctx)
	if err != nil {
		return nil, models.NewDependencyWriteFailed(entity, key, err)
	}
	if row != nil {
		return row, nil
	}

	res := insert(ctx)
	switch res.Outcome {
	case models.InsertOutcomeInserted:
		return res.Row, nil
	case models.InsertOutcomeAlreadyExists:
		row, err = find(ctx)
		if err != nil {
			return nil, models.NewDependencyWriteFailed(entity, key, err)
		}
		if row == nil {
			return nil, models.NewDependencyWriteFailed(entity, key, errVanishedAfterConflict)
		}
		return row, nil
	default:
		return nil, models.NewDependencyWriteFailed(entity, key, res.Err)
	}
}

// ReferenceResolver resolves platform, vendor and SKU rows for one ingestion
// run. Its memo lives as long as the resolver; create one per run.
type ReferenceResolver struct {
	store         Store
	effectiveDate time.Time

	mu        sync.Mutex
	platforms map[string]*models.Platform
	vendors   map[string]*models.Vendor
	skus      map[string]*models.LandingRate

	flight singleflight.Group
}

func NewReferenceResolver(store Store, runDate time.Time) *ReferenceResolver {
	y, m, d := runDate.Date()
	return &ReferenceResolver{
		store:         store,
		effectiveDate: time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		platforms:     make(map[string]*models.Platform),
		vendors:       make(map[string]*models.Vendor),
		skus:          make(map[string]*models.LandingRate),
	}
}

func memoGet[T any](r *ReferenceResolver, memo map[string]*T, key string) (*T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := memo[key]
	return row, ok
}

func memoPut[T any](r *ReferenceResolver, memo map[string]*T, key string, row *T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	memo[key] = row
}

// resolve collapses concurrent callers for the same memo key into one store
// round trip, so each key sees at most one insert attempt per run.
func resolve[T any](
	ctx context.Context,
	r *ReferenceResolver,
	memo map[string]*T,
	entity, memoKey, naturalKey string,
	find func(context.Context) (*T, error),
	insert func(context.Context) models.InsertResult[T],
) (*T, error) {
	if row, ok := memoGet(r, memo, memoKey); ok {
		return row, nil
	}

	v, err, _ := r.flight.Do(entity+"\x00"+memoKey, func() (interface{}, error) {
		if row, ok := memoGet(r, memo, memoKey); ok {
			return row, nil
		}
		row, err := getOrCreateInStore(ctx, entity, naturalKey, find, insert)
		if err != nil {
			return nil, err
		}
		memoPut(r, memo, memoKey, row)
		return row, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*T), nil
}

func (r *ReferenceResolver) ResolvePlatform(ctx context.Context, name string) (*models.Platform, error) {
	return resolve(ctx, r, r.platforms, entityPlatform, name, name,
		func(ctx context.Context) (*models.Platform, error) {
			return r.store.FindPlatformByName(ctx, name)
		},
		func(ctx context.Context) models.InsertResult[models.Platform] {
			return r.store.InsertPlatform(ctx, &models.Platform{Name: name})
		},
	)
}

// ResolveVendor keys the store by name only. City is part of the memo key,
// so the same vendor seen with two cities costs one extra lookup.
func (r *ReferenceResolver) ResolveVendor(ctx context.Context, name, city string, platformId int) (*models.Vendor, error) {
	memoKey := fmt.Sprintf("%s|%s", name, city)
	return resolve(ctx, r, r.vendors, entityVendor, memoKey, name,
		func(ctx context.Context) (*models.Vendor, error) {
			return r.store.FindVendorByName(ctx, name)
		},
		func(ctx context.Context) models.InsertResult[models.Vendor] {
			return r.store.InsertVendor(ctx, &models.Vendor{
				Name:       name,
				City:       city,
				PlatformId: platformId,
			})
		},
	)
}

// ResolveSku creates unknown SKUs with zero prices, effective on the run date.
func (r *ReferenceResolver) ResolveSku(ctx context.Context, platformId int, skuId, productName string) (*models.LandingRate, error) {
	return resolve(ctx, r, r.skus, entityLandingRate, skuId, skuId,
		func(ctx context.Context) (*models.LandingRate, error) {
			return r.store.FindLandingRateBySkuId(ctx, skuId)
		},
		func(ctx context.Context) models.InsertResult[models.LandingRate] {
			return r.store.InsertLandingRate(ctx, &models.LandingRate{
				PlatformId:         platformId,
				SkuId:              skuId,
				ProductName:        productName,
				Mrp:                decimal.Zero,
				BillingValuePerQty: decimal.Zero,
				EffectiveDate:      datatypes.Date(r.effectiveDate),
			})
		},
	)
}
