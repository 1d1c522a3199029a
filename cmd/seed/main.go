package main

import (
	"context"
	_ "embed"
	"log"
	"os"

	"fusion-agent-be/internal/config"
	"fusion-agent-be/internal/pkg/logger"
	"fusion-agent-be/internal/repository/unitofwork"
	"fusion-agent-be/internal/service"
	"fusion-agent-be/pkg/database"

	"go.uber.org/zap/zapcore"
)

//go:embed contexts.yaml
var defaultContexts []byte

func main() {
	cfg := config.Load()
	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	data := defaultContexts
	if len(os.Args) > 1 {
		custom, err := os.ReadFile(os.Args[1])
		if err != nil {
			log.Fatalf("Error: Failed to read seed file: %v", err)
		}
		data = custom
	}

	db, err := database.Open(database.GormConfig{DSN: cfg.Database.Connection})
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}
	defer database.Close(db)

	catalog := service.NewContextCatalog(unitofwork.NewRepositoryFactory(db), nil, logger.NewConsoleLogger(zapcore.InfoLevel))

	log.Println("Seeding query contexts...")
	created, err := seedContexts(context.Background(), catalog, data)
	if err != nil {
		log.Fatalf("Error: Seeding failed after %d created: %v", created, err)
	}

	log.Printf("Context seeding completed, %d created.", created)
}
