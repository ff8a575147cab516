package models

import (
	"log"

	"github.com/mmdatafocus/po_service/config"
	"gorm.io/gorm"
)

func MigrateTable() {
	if err := Migrate(config.GetDB()); err != nil {
		log.Fatal(err)
	}
}

// Migrate creates or alters the service tables on db.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Platform{}, &Vendor{}, &LandingRate{},
		&PurchaseOrder{}, &OrderItem{},
		&IngestionRun{},
	)
}
