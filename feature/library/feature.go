package library

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/vonnieda/dimple/core/store"
)

// Feature exposes the librarian on the HTTP surface.
type Feature struct {
	handler *Handler
	enabled bool
}

// NewFeature wraps the librarian as a loadable feature.
func NewFeature(librarian *Librarian, s *store.Store, cfg Config, log *zap.Logger) *Feature {
	mode, err := ParseNetworkMode(cfg.NetworkMode)
	if err != nil {
		mode = Online
		log.Warn("invalid network mode, defaulting to online",
			zap.String("configured", cfg.NetworkMode))
	}
	return &Feature{
		handler: NewHandler(librarian, s, mode, log),
		enabled: cfg.Enabled,
	}
}

// Name implements loader.Feature.
func (f *Feature) Name() string { return "library" }

// IsEnabled implements loader.Feature.
func (f *Feature) IsEnabled() bool { return f.enabled }

// Load implements loader.Feature.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
