package db

import (
	"gatekeepr/src/config"
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Connect opens the primary record store. The returned handle is constructed
// once at startup and passed into every handler that needs it.
func Connect() (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(config.GetDSN()))
	if err != nil {
		log.Printf("Error connecting to database: %s\n", err.Error())
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	return db, nil
}
