package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"distributorsearch_api/config"
	"distributorsearch_api/internal/app"
	"distributorsearch_api/internal/connectors"
	"distributorsearch_api/pkg/dbconnect/postgres"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the yaml config file")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config %s: %v", *configPath, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database := postgres.NewPgConnector(cfg.Postgres)
	registry := connectors.DefaultRegistry()

	server := app.NewServer(cfg, database, registry, os.Stdout)
	if err := server.Run(ctx); err != nil {
		log.Fatalf("Server exited with error: %v", err)
	}
	log.Println("Server stopped")
}
