package database

import "gorm.io/gorm"

var DB *gorm.DB

// GetDB returns the shared GORM handle initialized by SetupDatabase.
func GetDB() *gorm.DB {
	return DB
}

// SetDB swaps the shared handle, used by tests to inject an isolated DB.
func SetDB(db *gorm.DB) {
	DB = db
}
