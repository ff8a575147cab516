package models

import (
	"context"
	"errors"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Repository is the gorm-backed store behind ingestion and the query layer.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func isDuplicateKeyErr(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}

// findOne returns (nil, nil) when no row matches.
func findOne[T any](ctx context.Context, db *gorm.DB, query string, args ...interface{}) (*T, error) {
	var row T
	err := db.WithContext(ctx).Where(query, args...).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func insertOne[T any](ctx context.Context, db *gorm.DB, row *T) InsertResult[T] {
	if err := db.WithContext(ctx).Create(row).Error; err != nil {
		if isDuplicateKeyErr(err) {
			return AlreadyExists[T]()
		}
		return InsertFailed[T](err)
	}
	return Inserted(row)
}

func (r *Repository) FindPlatformByName(ctx context.Context, name string) (*Platform, error) {
	return findOne[Platform](ctx, r.db, "name = ?", name)
}

func (r *Repository) InsertPlatform(ctx context.Context, platform *Platform) InsertResult[Platform] {
	return insertOne(ctx, r.db, platform)
}

func (r *Repository) FindVendorByName(ctx context.Context, name string) (*Vendor, error) {
	return findOne[Vendor](ctx, r.db, "name = ?", name)
}

func (r *Repository) InsertVendor(ctx context.Context, vendor *Vendor) InsertResult[Vendor] {
	return insertOne(ctx, r.db, vendor)
}

func (r *Repository) FindLandingRateBySkuId(ctx context.Context, skuId string) (*LandingRate, error) {
	return findOne[LandingRate](ctx, r.db, "sku_id = ?", skuId)
}

func (r *Repository) InsertLandingRate(ctx context.Context, landingRate *LandingRate) InsertResult[LandingRate] {
	return insertOne(ctx, r.db, landingRate)
}

func (r *Repository) FindPurchaseOrderByNumber(ctx context.Context, poNumber string) (*PurchaseOrder, error) {
	return findOne[PurchaseOrder](ctx, r.db, "po_number = ?", poNumber)
}

func (r *Repository) InsertPurchaseOrder(ctx context.Context, po *PurchaseOrder) InsertResult[PurchaseOrder] {
	return insertOne(ctx, r.db, po)
}

func (r *Repository) FindOrderItem(ctx context.Context, poId int, skuId string) (*OrderItem, error) {
	return findOne[OrderItem](ctx, r.db, "po_id = ? AND sku_id = ?", poId, skuId)
}

func (r *Repository) InsertOrderItem(ctx context.Context, item *OrderItem) InsertResult[OrderItem] {
	return insertOne(ctx, r.db, item)
}

// UpdateOrderedQuantity writes ordered_quantity only and returns the fresh row.
func (r *Repository) UpdateOrderedQuantity(ctx context.Context, itemId int, qty decimal.Decimal) (*OrderItem, error) {
	db := r.db.WithContext(ctx)
	if err := db.Model(&OrderItem{}).Where("id = ?", itemId).Update("ordered_quantity", qty).Error; err != nil {
		return nil, err
	}
	var item OrderItem
	if err := db.First(&item, itemId).Error; err != nil {
		return nil, err
	}
	return &item, nil
}
