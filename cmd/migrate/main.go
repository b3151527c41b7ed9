// Command migrate applies or rolls back the booking schema.
//
//	migrate            apply every pending migration
//	migrate -down      roll back everything
//	migrate -to 1      move to a specific version
//	migrate -seed      apply, then insert the demo campaign
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"

	"ms-booking/internal/config"
	"ms-booking/internal/database/migrations"
	"ms-booking/internal/logger"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
)

func main() {
	down := flag.Bool("down", false, "roll back all migrations")
	to := flag.Uint("to", 0, "migrate to this version instead of the latest")
	seed := flag.Bool("seed", false, "insert demo data after migrating up")
	flag.Parse()

	cfg := config.Load()
	if cfg.Database.URL == "" {
		log.Fatal("DATABASE_URL not set")
	}

	logger := logger.NewLogger(logger.Options{Service: "booking-migrate"})
	defer logger.Close()

	sqldb, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
	}
	if err := sqldb.Ping(); err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
	}
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	runner := migrations.NewRunner(db, migrations.MigrateOptions{SeedData: *seed}, logger)
	defer runner.Close()

	switch {
	case *down:
		logger.Info("MIGRATE", "Rolling back all migrations")
		err = runner.MigrateDown()
	case *to > 0:
		logger.Info("MIGRATE", fmt.Sprintf("Migrating to version %d", *to))
		err = runner.MigrateTo(*to)
	default:
		err = runner.RunMigrations()
	}
	if err != nil {
		logger.Fatal("MIGRATE", err.Error())
	}
	logger.Info("MIGRATE", "Done")
}
