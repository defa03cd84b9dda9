package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gofiber/fiber/v3"

	"diagraph/internal/converter/mapper"
	"diagraph/internal/converter/repository"
)

// ============================================================
// Render Handler
// ============================================================

// RenderPage рисует граф страницы сохраненного прогона в SVG
func (h *ConvertHandler) RenderPage(c fiber.Ctx) error {
	id := c.Params("id")
	pageID := fiber.Params[int64](c, "page")
	log.Printf("[RENDER] Run %s, page %d", id, pageID)

	run, err := h.runs.GetRun(c.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "run not found"})
	}
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load run"})
	}

	for _, page := range run.Pages {
		if page.PageID != pageID {
			continue
		}
		svg, err := mapper.NewRenderer().Render(page)
		if errors.Is(err, mapper.ErrNothingToRender) {
			return c.Status(http.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
		}
		if err != nil {
			log.Printf("[RENDER] Render error: %v", err)
			return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		c.Set(fiber.HeaderContentType, "image/svg+xml")
		return c.SendString(svg)
	}
	return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "page not found"})
}
