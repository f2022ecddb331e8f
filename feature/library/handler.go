package library

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/vonnieda/dimple/core/logger"
	"github.com/vonnieda/dimple/core/model"
	"github.com/vonnieda/dimple/core/store"
)

// Handler handles HTTP requests for the library.
type Handler struct {
	librarian *Librarian
	store     *store.Store
	mode      NetworkMode
	logger    *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(librarian *Librarian, s *store.Store, mode NetworkMode, log *zap.Logger) *Handler {
	return &Handler{librarian: librarian, store: s, mode: mode, logger: log}
}

// RegisterRoutes registers the library routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/library")
	group.Get("/search", h.HandleSearch)
	group.Get("/artists", h.HandleListArtists)
	group.Get("/artists/:key", h.HandleGetArtist)
}

// HandleSearch answers a free-text query across providers and the store.
func (h *Handler) HandleSearch(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	query := c.Query("q")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing query parameter q",
		})
	}

	mode := h.mode
	if m := c.Query("mode"); m != "" {
		parsed, err := ParseNetworkMode(m)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		mode = parsed
	}

	results, err := h.librarian.Search(c.Context(), query, mode)
	if err != nil {
		l.Error("Search failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(results)
}

// HandleListArtists returns every stored artist.
func (h *Handler) HandleListArtists(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	artists, err := h.store.List(c.Context(), model.KindArtist)
	if err != nil {
		l.Error("Artist list failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(artists)
}

// HandleGetArtist returns one artist by store key, refreshing it from
// providers when the network mode permits.
func (h *Handler) HandleGetArtist(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	lookup := &model.Artist{}
	lookup.SetEntityKey(c.Params("key"))

	artist, err := h.librarian.Fetch(c.Context(), lookup, h.mode)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "artist not found",
			})
		}
		l.Error("Artist fetch failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(artist)
}
