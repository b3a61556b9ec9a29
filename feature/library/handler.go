package library

import (
	"errors"

	"kindle-sync/core/logger"
	"kindle-sync/feature/library/auth"
	"kindle-sync/feature/library/sync"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for the library.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the library routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Get("/status", h.HandleStatus)
	app.Get("/books", h.HandleListBooks)
	app.Get("/books/:asin/highlights", h.HandleListHighlights)
	app.Delete("/books/:asin", h.HandleDeleteBook)
	app.Get("/search", h.HandleSearch)
	app.Post("/sync", h.HandleSync)
	app.Post("/highlights/:id/visibility", h.HandleToggleVisibility)
}

// HandleStatus returns store statistics and session state.
func (h *Handler) HandleStatus(c *fiber.Ctx) error {
	report, err := h.service.Status(c.Context())
	if err != nil {
		return h.fail(c, "status check failed", err)
	}
	return c.JSON(report)
}

// HandleListBooks returns every stored book with its highlight count.
func (h *Handler) HandleListBooks(c *fiber.Ctx) error {
	books, err := h.service.Books(c.Context())
	if err != nil {
		return h.fail(c, "book listing failed", err)
	}
	return c.JSON(books)
}

// HandleListHighlights returns one book's highlights.
func (h *Handler) HandleListHighlights(c *fiber.Ctx) error {
	highlights, err := h.service.Highlights(c.Context(), c.Params("asin"))
	if err != nil {
		return h.fail(c, "highlight listing failed", err)
	}
	return c.JSON(highlights)
}

// HandleDeleteBook removes a book and all its highlights.
func (h *Handler) HandleDeleteBook(c *fiber.Ctx) error {
	if err := h.service.DeleteBook(c.Context(), c.Params("asin")); err != nil {
		return h.fail(c, "book deletion failed", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleSearch finds highlights matching the q parameter, optionally
// restricted to one book via asin.
func (h *Handler) HandleSearch(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing query parameter q",
		})
	}

	results, err := h.service.Search(c.Context(), query, c.Query("asin"))
	if err != nil {
		return h.fail(c, "search failed", err)
	}
	return c.JSON(results)
}

type syncRequest struct {
	Mode  string   `json:"mode"`
	ASINs []string `json:"asins"`
}

// HandleSync triggers a run and returns its result.
func (h *Handler) HandleSync(c *fiber.Ctx) error {
	var req syncRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "malformed request body",
			})
		}
	}

	result, err := h.service.Sync(c.Context(), sync.Options{
		Mode:  sync.Mode(req.Mode),
		ASINs: req.ASINs,
	})
	switch {
	case errors.Is(err, ErrSyncRunning):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errors.Is(err, auth.ErrNotAuthenticated):
		l := logger.WithRayID(h.service.logger, c)
		l.Warn("sync rejected, not authenticated")
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":  "not authenticated",
			"result": result,
		})
	case err != nil:
		l := logger.WithRayID(h.service.logger, c)
		l.Error("sync failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":  err.Error(),
			"result": result,
		})
	}

	return c.JSON(result)
}

// HandleToggleVisibility flips a highlight's hidden flag.
func (h *Handler) HandleToggleVisibility(c *fiber.Ctx) error {
	hidden, err := h.service.ToggleVisibility(c.Context(), c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"id": c.Params("id"), "is_hidden": hidden})
}

func (h *Handler) fail(c *fiber.Ctx, msg string, err error) error {
	l := logger.WithRayID(h.service.logger, c)
	l.Error(msg, zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": err.Error(),
	})
}
