package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"classroom-scores/internal/config"
	"classroom-scores/internal/db"
)

func main() {
	filePath := flag.String("file", "scores.csv", "path to a scores export (.csv or .xlsx)")
	flag.Parse()

	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("failed to load .env: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	conn, err := db.Open(cfg.DatabasePath, cfg)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer func() { _ = db.Close(conn) }()
	if err := db.Migrate(conn); err != nil {
		log.Fatalf("database migration failed: %v", err)
	}

	rows, err := readExport(*filePath)
	if err != nil {
		log.Fatalf("failed to read scores: %v", err)
	}

	loaded, err := db.NewStore(conn).Restore(context.Background(), rows)
	if err != nil {
		log.Fatalf("failed to restore scores: %v", err)
	}
	log.Printf("loaded %d scores from %s", loaded, *filePath)
}

func readExport(path string) ([]db.Score, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var reader func(io.Reader) ([]db.Score, error) = db.ReadScoresCSV
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		reader = db.ReadScoresXLSX
	}
	return reader(file)
}
