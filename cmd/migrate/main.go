// Runs the schema migrations against the configured database.
// How to run:
// go run cmd/migrate/main.go
package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/tolkbridge/dispatch/config"
	"github.com/tolkbridge/dispatch/internal/constants"
	"github.com/tolkbridge/dispatch/internal/db"
)

func main() {
	_ = godotenv.Load()

	gormDB, err := db.New(db.Options{
		Host:     config.GetEnv(constants.EnvDBHost, db.DefaultHost),
		User:     config.GetEnv(constants.EnvDBUser, db.DefaultUser),
		Password: config.GetEnv(constants.EnvDBPassword, db.DefaultPassword),
		DBName:   config.GetEnv(constants.EnvDBName, db.DefaultDBName),
		Port:     config.GetEnvInt(constants.EnvDBPort, db.DefaultPort),
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.Migrate(gormDB); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Println("Migrations applied")
}
