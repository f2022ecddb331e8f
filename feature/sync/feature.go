package sync

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/vonnieda/dimple/core/logger"
)

// Feature exposes the sync engine on the HTTP surface.
type Feature struct {
	engine  *Engine
	enabled bool
	logger  *zap.Logger
}

// NewFeature wraps a sync engine as a loadable feature.
func NewFeature(engine *Engine, enabled bool, log *zap.Logger) *Feature {
	return &Feature{engine: engine, enabled: enabled, logger: log}
}

// Name implements loader.Feature.
func (f *Feature) Name() string { return "sync" }

// IsEnabled implements loader.Feature.
func (f *Feature) IsEnabled() bool { return f.enabled && f.engine != nil }

// Load implements loader.Feature.
func (f *Feature) Load(app fiber.Router) error {
	app.Post("/sync", f.handleSync)
	return nil
}

// handleSync runs one sync cycle and returns its report.
func (f *Feature) handleSync(c *fiber.Ctx) error {
	l := logger.WithRayID(f.logger, c)

	report, err := f.engine.Sync(c.Context())
	if err != nil {
		l.Error("Sync cycle failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(report)
}
