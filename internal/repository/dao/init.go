package dao

import "gorm.io/gorm"

// InitTables creates the rounds and tickets tables for development and tests.
// Deployed databases are migrated with cmd/migrate.
func InitTables(db *gorm.DB) error {
	return db.AutoMigrate(
		&Round{},
		&Ticket{},
	)
}

func dropAllTables(db *gorm.DB) error {
	return db.Migrator().DropTable(&Ticket{}, &Round{})
}
