package models

import "time"

type Platform struct {
	ID          int       `gorm:"primary_key" json:"id"`
	Name        string    `gorm:"size:255;uniqueIndex;not null" json:"name"`
	Description string    `gorm:"size:255" json:"description"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Platform) TableName() string {
	return "platform"
}

type Vendor struct {
	ID          int       `gorm:"primary_key" json:"id"`
	Name        string    `gorm:"size:255;uniqueIndex;not null" json:"name"`
	City        string    `gorm:"size:100" json:"city"`
	ContactInfo string    `gorm:"size:255" json:"contact_info"`
	PlatformId  int       `gorm:"index" json:"platform_id"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Vendor) TableName() string {
	return "vendors"
}
