// Command init_db creates the decisions database and the assessments table.
package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"

	"loan-decision-explainer/internal/config"
	"loan-decision-explainer/internal/services/database"
)

func main() {
	fmt.Println("=== Database Initialization Script ===")
	fmt.Println()

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		fmt.Printf("⚠️  Warning: Could not load .env file: %v\n", err)
	}

	// DATABASE_URL wins over the DB_* variables
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		cfg, err := config.Load()
		if err != nil {
			fmt.Printf("❌ Failed to load config: %v\n", err)
			os.Exit(1)
		}
		databaseURL = cfg.DatabaseURL()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	dbName, adminURL, err := adminDatabaseURL(databaseURL)
	if err != nil {
		fmt.Printf("❌ Invalid database URL: %v\n", err)
		os.Exit(1)
	}

	// First connect to default 'postgres' database to create our database
	fmt.Println("📡 Connecting to PostgreSQL server...")
	adminConn, err := pgx.Connect(ctx, adminURL)
	if err != nil {
		fmt.Printf("❌ Failed to connect to PostgreSQL: %v\n", err)
		os.Exit(1)
	}

	var exists bool
	err = adminConn.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)", dbName).Scan(&exists)
	if err != nil {
		fmt.Printf("❌ Failed to check database existence: %v\n", err)
		adminConn.Close(ctx)
		os.Exit(1)
	}

	if !exists {
		fmt.Printf("📦 Creating '%s' database...\n", dbName)
		if _, err := adminConn.Exec(ctx, "CREATE DATABASE "+pgx.Identifier{dbName}.Sanitize()); err != nil {
			fmt.Printf("❌ Failed to create database: %v\n", err)
			adminConn.Close(ctx)
			os.Exit(1)
		}
		fmt.Printf("✅ Database '%s' created!\n", dbName)
	} else {
		fmt.Printf("✅ Database '%s' already exists\n", dbName)
	}
	adminConn.Close(ctx)

	fmt.Printf("📡 Connecting to %s database...\n", dbName)
	db, err := database.Open(ctx, databaseURL, database.PoolOptions{MaxConns: 2, ConnectTimeout: 10 * time.Second})
	if err != nil {
		fmt.Printf("❌ Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	fmt.Println("🚀 Applying assessments schema...")
	if err := db.Migrate(ctx); err != nil {
		fmt.Printf("❌ Failed to apply schema: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("✅ Schema applied successfully!")
	fmt.Println()

	// Verify by reading back the most recent assessments
	fmt.Println("🔍 Verifying database setup...")
	recent, err := database.NewAssessmentRepository(db).ListRecent(ctx, 5)
	if err != nil {
		fmt.Printf("⚠️  Warning: Could not read assessments: %v\n", err)
	} else {
		fmt.Printf("   📋 Recent assessments: %d\n", len(recent))
		for _, a := range recent {
			fmt.Printf("   %s  %-9s %-9s p=%.3f (%s)\n", a.CreatedAt.Format(time.RFC3339), a.Endpoint, a.Prediction, a.Probability, a.Confidence)
		}
	}

	fmt.Println()
	fmt.Println("🎉 Database initialization completed successfully!")
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Set DATABASE_ENABLED=true")
	fmt.Println("  2. Start the API: go run ./cmd/server")
}

// adminDatabaseURL returns the target database name and the same URL pointed
// at the 'postgres' maintenance database.
func adminDatabaseURL(databaseURL string) (string, string, error) {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "", "", err
	}
	name := strings.TrimPrefix(u.Path, "/")
	if name == "" {
		return "", "", fmt.Errorf("no database name in %q", u.Redacted())
	}
	u.Path = "/postgres"
	return name, u.String(), nil
}
