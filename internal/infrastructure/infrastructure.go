// Package infrastructure wires the shared subsystems: lifecycle
// coordination, logging, and the database connection.
package infrastructure

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/oficiohq/oficio/internal/config"
	"github.com/oficiohq/oficio/pkg/database"
	"github.com/oficiohq/oficio/pkg/lifecycle"
)

// Infrastructure holds the shared subsystems available to all modules.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
}

// New creates the infrastructure from configuration. Subsystems are
// constructed but not started; call Start to register lifecycle hooks.
func New(cfg *config.Config) (*Infrastructure, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	return &Infrastructure{
		Lifecycle: lifecycle.New(),
		Logger:    logger,
		Database:  db,
	}, nil
}

// Start registers all subsystem lifecycle hooks.
func (i *Infrastructure) Start() error {
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("start database: %w", err)
	}
	return nil
}
