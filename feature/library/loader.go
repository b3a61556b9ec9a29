package library

import (
	"kindle-sync/core/config"
	"kindle-sync/feature/library/store"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
}

// NewFeature creates the library feature.
func NewFeature(s *store.Store, cfg config.SyncConfig, logger *zap.Logger) (*Feature, error) {
	svc, err := NewService(s, cfg, logger)
	if err != nil {
		return nil, err
	}
	return &Feature{service: svc, handler: NewHandler(svc)}, nil
}

// Service returns the underlying service for the CLI commands.
func (f *Feature) Service() *Service { return f.service }

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "library"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return true
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
