package storage

import (
	"fmt"

	"github.com/alchemorsel/recipes/internal/infrastructure/config"
	"github.com/alchemorsel/recipes/internal/ports/outbound"
	"go.uber.org/zap"
)

// New selects the storage backend named by cfg.Provider
func New(cfg config.StorageConfig, logger *zap.Logger) (outbound.StorageService, error) {
	switch cfg.Provider {
	case "", "local":
		return NewLocalStorage(cfg, logger)
	case "s3":
		return NewS3Storage(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Provider)
	}
}
