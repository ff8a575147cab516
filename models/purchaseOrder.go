package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type PurchaseOrderStatus string

const (
	PurchaseOrderStatusPending PurchaseOrderStatus = "Pending"
)

type PurchaseOrder struct {
	ID            int                 `gorm:"primary_key" json:"id"`
	PoNumber      string              `gorm:"size:100;uniqueIndex;not null" json:"po_number"`
	VendorId      int                 `gorm:"index;not null" json:"vendor_id"`
	PlatformId    int                 `gorm:"index;not null" json:"platform_id"`
	City          string              `gorm:"size:100;index" json:"city"`
	PoCreatedDate datatypes.Date      `gorm:"index;not null" json:"po_created_date"`
	Status        PurchaseOrderStatus `gorm:"size:50;not null;default:Pending" json:"status"`
	Vendor        *Vendor             `gorm:"foreignKey:VendorId" json:"vendors,omitempty"`
	Platform      *Platform           `gorm:"foreignKey:PlatformId" json:"platform,omitempty"`
	OrderItems    []*OrderItem        `gorm:"foreignKey:PoId" json:"order_item,omitempty"`
	CreatedAt     time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

func (PurchaseOrder) TableName() string {
	return "purchase_orders"
}

// OrderItem is unique per (po_id, sku_id). Ingestion only ever writes
// ordered_quantity; received_quantity changes through UpdateReceivedQuantity.
type OrderItem struct {
	ID               int             `gorm:"primary_key" json:"id"`
	PoId             int             `gorm:"uniqueIndex:idx_order_item_po_sku,priority:1;not null" json:"po_id"`
	SkuId            string          `gorm:"size:100;uniqueIndex:idx_order_item_po_sku,priority:2;not null" json:"sku_id"`
	OrderedQuantity  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"ordered_quantity"`
	ReceivedQuantity decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"received_quantity"`
	LandingRate      *LandingRate    `gorm:"foreignKey:SkuId;references:SkuId" json:"landing_rate,omitempty"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (OrderItem) TableName() string {
	return "order_item"
}

// PurchaseOrderFilter is a conjunction; empty fields impose no constraint.
// FromDate and ToDate are inclusive.
type PurchaseOrderFilter struct {
	VendorName string
	City       string
	Status     PurchaseOrderStatus
	FromDate   *time.Time
	ToDate     *time.Time
}
