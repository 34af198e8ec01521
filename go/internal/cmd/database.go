package main

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/snakedraft/go/internal/dbconfig"
	"github.com/mcdev12/snakedraft/go/internal/draft/repository"
)

// setupRepository returns the Postgres repository when a database is
// configured and the in-memory one otherwise. The returned db is nil for
// the memory repository.
func setupRepository() (repository.Repository, *sql.DB, error) {
	database, err := openDatabase()
	if err != nil {
		return nil, nil, err
	}
	if database == nil {
		log.Warn().Msg("no database configured; drafts are kept in memory")
		return repository.NewMemory(), nil, nil
	}

	if err := repository.Migrate(database); err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return repository.NewPostgres(database), database, nil
}

func openDatabase() (*sql.DB, error) {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		database, err := sql.Open("postgres", url)
		if err != nil {
			return nil, fmt.Errorf("failed to create database connection: %w", err)
		}
		if err := database.Ping(); err != nil {
			database.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		log.Info().Msg("connected to database from DATABASE_URL")
		return database, nil
	}

	if os.Getenv("DB_HOST") == "" {
		return nil, nil
	}
	dbConfig := dbconfig.NewConfigFromEnv()
	database, err := dbConfig.Open()
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("user", dbConfig.User).
		Str("host", dbConfig.Host).
		Int("port", dbConfig.Port).
		Str("database", dbConfig.Database).
		Msg("connected to database")
	return database, nil
}
