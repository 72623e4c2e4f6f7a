package main

import (
	"errors"
	"log"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/pflag"
)

func main() {
	source := pflag.String("source", "file://db/migrations", "migration source URL")
	databaseURL := pflag.String("database-url", os.Getenv("DATABASE_URL"), "postgres URL, defaults to $DATABASE_URL")
	down := pflag.Bool("down", false, "roll back instead of applying")
	steps := pflag.Int("steps", 0, "number of migrations to apply or roll back, 0 means all")
	pflag.Parse()

	if *databaseURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	m, err := migrate.New(*source, *databaseURL)
	if err != nil {
		log.Fatalf("migration setup failed: %v", err)
	}
	defer m.Close()

	switch {
	case *steps != 0 && *down:
		err = m.Steps(-*steps)
	case *steps != 0:
		err = m.Steps(*steps)
	case *down:
		err = m.Down()
	default:
		err = m.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatalf("database migration failed: %v", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		log.Fatalf("reading migration version failed: %v", err)
	}
	log.Printf("database migrations applied, version=%d dirty=%t", version, dirty)
}
