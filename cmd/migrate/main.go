package main

import (
	"log"
	"os"

	"mindstorm-be/internal/model"
	"mindstorm-be/pkg/database"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
)

func main() {
	// 1. Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		color.Red("Error: DB_CONNECTION_STRING is not set")
		os.Exit(1)
	}

	pool := database.DefaultPoolConfig()
	pool.Quiet = true
	db, err := database.NewGormDBFromDSN(dsn, pool)
	if err != nil {
		color.Red("Error: Failed to connect to database: %v", err)
		os.Exit(1)
	}

	color.Cyan("Step 1: Setting up extensions...")
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto;`).Error; err != nil {
		color.Yellow("Warn: Failed to create pgcrypto: %v. Continuing...", err)
	}

	models := model.All()
	color.Cyan("Step 2: Running AutoMigrate for %d tables...", len(models))
	if err := db.AutoMigrate(models...); err != nil {
		color.Red("Error: AutoMigrate failed: %v", err)
		os.Exit(1)
	}

	color.Cyan("Step 3: Creating indexes...")
	postMigrationSQL := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_messages_session_seq ON messages (session_id, seq);`,
	}
	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			color.Yellow("Warn: Failed to execute post-migration SQL: %v", err)
		}
	}

	color.Green("✅ Success: Database migration completed successfully via GORM.")
}
