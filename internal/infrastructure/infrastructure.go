// Package infrastructure provides core service initialization for application startup.
// It assembles common dependencies (logging, database, storage) that domain systems require.
package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/JaimeStill/rounds/internal/config"
	"github.com/JaimeStill/rounds/pkg/database"
	"github.com/JaimeStill/rounds/pkg/lifecycle"
	"github.com/JaimeStill/rounds/pkg/storage"
)

// Infrastructure holds the core systems required by all domain modules.
// Database is nil when cases are kept in memory; Storage is nil when turn
// archiving is disabled.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
}

// New creates an Infrastructure from the application configuration.
// It initializes the selected systems but does not start them; call Start separately.
func New(cfg *config.Config, logOutput io.Writer) (*Infrastructure, error) {
	infra := &Infrastructure{
		Lifecycle: lifecycle.New(),
		Logger:    cfg.Logging.NewLogger(logOutput),
	}

	if cfg.UsesDatabase() {
		db, err := database.New(&cfg.Database, infra.Logger)
		if err != nil {
			return nil, fmt.Errorf("database init failed: %w", err)
		}
		infra.Database = db
	}

	if cfg.UsesArchive() {
		store, err := storage.New(&cfg.Storage, infra.Logger)
		if err != nil {
			return nil, fmt.Errorf("storage init failed: %w", err)
		}
		infra.Storage = store
	}

	return infra, nil
}

// Start registers the selected systems with the lifecycle coordinator and
// runs their startup hooks. An unreachable database or storage account
// fails Start.
func (i *Infrastructure) Start(ctx context.Context) error {
	if i.Database != nil {
		if err := i.Database.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("database start failed: %w", err)
		}
	}
	if i.Storage != nil {
		if err := i.Storage.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("storage start failed: %w", err)
		}
	}

	return i.Lifecycle.Start(ctx)
}
