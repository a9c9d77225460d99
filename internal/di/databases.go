package di

import (
	"fmt"
	"path/filepath"

	"github.com/aristath/vitals/internal/config"
	"github.com/aristath/vitals/internal/database"
	"github.com/rs/zerolog"
)

// DatabaseFile is the state database under the data directory.
const DatabaseFile = "vitals.db"

// InitializeDatabase opens the state database and applies the schema.
func InitializeDatabase(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	db, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, DatabaseFile),
		Profile: database.ProfileStandard,
		Name:    "vitals",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vitals database: %w", err)
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate vitals database: %w", err)
	}

	log.Info().Str("path", db.Path()).Msg("Database initialized")

	return &Container{DB: db}, nil
}
