package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// LandingRate is the SKU reference row. Rows created by ingestion carry
// zero prices until someone maintains them.
type LandingRate struct {
	ID                 int             `gorm:"primary_key" json:"id"`
	PlatformId         int             `gorm:"index" json:"platform_id"`
	SkuId              string          `gorm:"size:100;uniqueIndex;not null" json:"sku_id"`
	ProductName        string          `gorm:"size:255" json:"product_name"`
	Mrp                decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"mrp"`
	BillingValuePerQty decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"billing_value_per_qty"`
	Cases              int             `gorm:"default:0" json:"cases"`
	EffectiveDate      datatypes.Date  `json:"effective_date"`
	CreatedAt          time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (LandingRate) TableName() string {
	return "landing_rate"
}
