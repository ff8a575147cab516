package main

import (
	"fmt"
	"os"

	"github.com/mmdatafocus/po_service/config"
	"github.com/mmdatafocus/po_service/models"
	"github.com/sirupsen/logrus"
)

// po-migrate runs AutoMigrate as a one-off job, for deployments that start
// the server with SKIP_MIGRATIONS=true.
func main() {
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}
	logger := config.GetLogger()

	if err := models.Migrate(db); err != nil {
		logger.WithFields(logrus.Fields{"field": "migrate"}).Error(err.Error())
		os.Exit(1)
	}
	logger.WithFields(logrus.Fields{"field": "migrate"}).Info("migrations applied")
}
