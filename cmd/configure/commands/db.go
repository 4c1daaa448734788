package commands

import (
	"fmt"
	"os"

	"github.com/7flash/argilla/internal/config"
	"github.com/7flash/argilla/internal/database"
)

// openDB loads configuration and connects to the database. The returned
// close func reports failures on stderr.
func openDB() (*database.DB, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	closeDB := func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
		}
	}
	return db, closeDB, nil
}
