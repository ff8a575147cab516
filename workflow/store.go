package workflow

import (
	"context"

	"github.com/mmdatafocus/po_service/models"
	"github.com/shopspring/decimal"
)

// Store is what ingestion needs from the backend: point lookups that return
// (nil, nil) on a miss, tagged single-row inserts, and one column update.
// *models.Repository satisfies it.
type Store interface {
	FindPlatformByName(ctx context.Context, name string) (*models.Platform, error)
	InsertPlatform(ctx context.Context, platform *models.Platform) models.InsertResult[models.Platform]

	FindVendorByName(ctx context.Context, name string) (*models.Vendor, error)
	InsertVendor(ctx context.Context, vendor *models.Vendor) models.InsertResult[models.Vendor]

	FindLandingRateBySkuId(ctx context.Context, skuId string) (*models.LandingRate, error)
	InsertLandingRate(ctx context.Context, landingRate *models.LandingRate) models.InsertResult[models.LandingRate]

	FindPurchaseOrderByNumber(ctx context.Context, poNumber string) (*models.PurchaseOrder, error)
	InsertPurchaseOrder(ctx context.Context, po *models.PurchaseOrder) models.InsertResult[models.PurchaseOrder]

	FindOrderItem(ctx context.Context, poId int, skuId string) (*models.OrderItem, error)
	InsertOrderItem(ctx context.Context, item *models.OrderItem) models.InsertResult[models.OrderItem]
	UpdateOrderedQuantity(ctx context.Context, itemId int, qty decimal.Decimal) (*models.OrderItem, error)

	InvalidatePurchaseOrder(ctx context.Context, poNumber string)
}

var _ Store = (*models.Repository)(nil)
