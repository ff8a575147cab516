package models

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mmdatafocus/po_service/config"
	"github.com/mmdatafocus/po_service/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func purchaseOrderCacheKey(poNumber string) string {
	return "PurchaseOrder:" + poNumber
}

func (r *Repository) withDetails(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Vendor").
		Preload("Platform").
		Preload("OrderItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_item.id")
		}).
		Preload("OrderItems.LandingRate")
}

// InvalidatePurchaseOrder drops the cached read model of one PO.
func (r *Repository) InvalidatePurchaseOrder(ctx context.Context, poNumber string) {
	if err := config.RemoveRedisKey(ctx, purchaseOrderCacheKey(poNumber)); err != nil {
		config.LogError(config.GetLogger(), "purchaseOrderQuery.go", "InvalidatePurchaseOrder", "removing cache key", poNumber, err)
	}
}

// GetPurchaseOrderByNumber returns the PO with vendor, platform and order items
// (each with its landing rate). Read from redis first when connected.
func (r *Repository) GetPurchaseOrderByNumber(ctx context.Context, poNumber string) (*PurchaseOrder, error) {
	poNumber = strings.TrimSpace(poNumber)
	if poNumber == "" {
		return nil, fmt.Errorf("po number is required: %w", ErrInvalidInput)
	}

	var cached PurchaseOrder
	key := purchaseOrderCacheKey(poNumber)
	if exists, err := config.GetRedisObject(ctx, key, &cached); err != nil {
		config.LogError(config.GetLogger(), "purchaseOrderQuery.go", "GetPurchaseOrderByNumber", "reading cache", poNumber, err)
	} else if exists {
		return &cached, nil
	}

	var po PurchaseOrder
	err := r.withDetails(ctx).Where("po_number = ?", poNumber).First(&po).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("purchase order %s: %w", poNumber, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	if err := config.SetRedisObject(ctx, key, &po, utils.GetCacheLifespan()); err != nil {
		config.LogError(config.GetLogger(), "purchaseOrderQuery.go", "GetPurchaseOrderByNumber", "writing cache", poNumber, err)
	}
	return &po, nil
}

// ListPurchaseOrders never returns a nil slice.
func (r *Repository) ListPurchaseOrders(ctx context.Context, filter PurchaseOrderFilter) ([]*PurchaseOrder, error) {
	dbCtx := r.withDetails(ctx)

	if name := strings.TrimSpace(filter.VendorName); name != "" {
		dbCtx = dbCtx.Where("vendor_id IN (?)", r.db.Model(&Vendor{}).Select("id").Where("name = ?", name))
	}
	if city := strings.TrimSpace(filter.City); city != "" {
		dbCtx = dbCtx.Where("city = ?", city)
	}
	if filter.Status != "" {
		dbCtx = dbCtx.Where("status = ?", filter.Status)
	}
	if filter.FromDate != nil {
		dbCtx = dbCtx.Where("po_created_date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		dbCtx = dbCtx.Where("po_created_date <= ?", *filter.ToDate)
	}

	results := make([]*PurchaseOrder, 0)
	if err := dbCtx.Order("id").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *Repository) UpdatePurchaseOrderStatus(ctx context.Context, poNumber string, status PurchaseOrderStatus) (*PurchaseOrder, error) {
	status = PurchaseOrderStatus(strings.TrimSpace(string(status)))
	if status == "" {
		return nil, fmt.Errorf("status is required: %w", ErrInvalidInput)
	}

	po, err := r.FindPurchaseOrderByNumber(ctx, poNumber)
	if err != nil {
		return nil, err
	}
	if po == nil {
		return nil, fmt.Errorf("purchase order %s: %w", poNumber, ErrNotFound)
	}

	if err := r.db.WithContext(ctx).Model(&PurchaseOrder{}).Where("id = ?", po.ID).Update("status", status).Error; err != nil {
		return nil, err
	}
	r.InvalidatePurchaseOrder(ctx, poNumber)
	return r.GetPurchaseOrderByNumber(ctx, poNumber)
}

// UpdateReceivedQuantity rejects a negative quantity before touching the store.
func (r *Repository) UpdateReceivedQuantity(ctx context.Context, poNumber string, skuId string, qty decimal.Decimal) (*OrderItem, error) {
	if qty.IsNegative() {
		return nil, fmt.Errorf("received quantity must be >= 0, got %s: %w", qty.String(), ErrInvalidInput)
	}

	po, err := r.FindPurchaseOrderByNumber(ctx, poNumber)
	if err != nil {
		return nil, err
	}
	if po == nil {
		return nil, fmt.Errorf("purchase order %s: %w", poNumber, ErrNotFound)
	}
	item, err := r.FindOrderItem(ctx, po.ID, skuId)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("order item %s/%s: %w", poNumber, skuId, ErrNotFound)
	}

	db := r.db.WithContext(ctx)
	if err := db.Model(&OrderItem{}).Where("id = ?", item.ID).Update("received_quantity", qty).Error; err != nil {
		return nil, err
	}
	r.InvalidatePurchaseOrder(ctx, poNumber)

	var updated OrderItem
	if err := db.Preload("LandingRate").First(&updated, item.ID).Error; err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *Repository) CreateIngestionRun(ctx context.Context, run *IngestionRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

// ListIngestionRuns returns the latest runs first.
func (r *Repository) ListIngestionRuns(ctx context.Context, limit int) ([]*IngestionRun, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	results := make([]*IngestionRun, 0)
	err := r.db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&results).Error
	return results, err
}
