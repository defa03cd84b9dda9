package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"diagraph/internal/converter/mapper"
	"diagraph/internal/converter/models"
	"diagraph/internal/converter/repository"
	"diagraph/internal/converter/service"
)

// RunStore persists conversion runs.
type RunStore interface {
	SaveRun(ctx context.Context, run *models.Run) error
	GetRun(ctx context.Context, id string) (*models.Run, error)
	ListRuns(ctx context.Context, limit int) ([]models.RunSummary, error)
	DeleteRun(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

// ============================================================
// Convert Handler
// ============================================================

type ConvertHandler struct {
	converter *mapper.Converter
	runs      RunStore
	storage   *service.FileStorage
}

func NewConvertHandler(converter *mapper.Converter, runs RunStore, storage *service.FileStorage) *ConvertHandler {
	return &ConvertHandler{
		converter: converter,
		runs:      runs,
		storage:   storage,
	}
}

// Convert строит граф связности для каждой страницы документа
func (h *ConvertHandler) Convert(c fiber.Ctx) error {
	log.Printf("[CONVERTER] Received request")
	log.Printf("[CONVERTER] Content-Type: %s", c.Get("Content-Type"))

	data, name, err := readUpload(c)
	if err != nil {
		log.Printf("[CONVERTER] Upload error: %v", err)
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	format := detectFormat(c.Query("format"), name)
	log.Printf("[CONVERTER] Document %q, format %s, %d bytes", name, format, len(data))

	doc, err := h.converter.Parse(bytes.NewReader(data), format)
	if err != nil {
		log.Printf("[CONVERTER] Parse error: %v", err)
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	pages, err := h.converter.Convert(c.Context(), doc)
	if err != nil {
		log.Printf("[CONVERTER] Conversion error: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	run := &models.Run{
		ID:        uuid.NewString(),
		Source:    name,
		Format:    format,
		CreatedAt: time.Now().UTC(),
		Pages:     pages,
	}
	// исходник сохраняем до записи в базу, чтобы прогон не ссылался в пустоту
	if _, err := h.storage.SaveSource(run.ID, format, data); err != nil {
		log.Printf("[CONVERTER] Archive error: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to archive source"})
	}
	if err := h.runs.SaveRun(c.Context(), run); err != nil {
		log.Printf("[CONVERTER] Save error: %v", err)
		if rmErr := h.storage.RemoveRun(run.ID); rmErr != nil {
			log.Printf("[CONVERTER] Remove source %s: %v", run.ID, rmErr)
		}
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to save run"})
	}

	status := http.StatusOK
	if allFailed(pages) {
		status = http.StatusUnprocessableEntity
	}
	log.Printf("[CONVERTER] Run %s saved, %d pages", run.ID, len(pages))
	return c.Status(status).JSON(run)
}

// readUpload takes the multipart "file" field or, failing that, the raw body.
func readUpload(c fiber.Ctx) ([]byte, string, error) {
	if strings.HasPrefix(c.Get("Content-Type"), "multipart/form-data") {
		file, err := c.FormFile("file")
		if err != nil {
			return nil, "", errors.New("file required in multipart/form-data")
		}
		f, err := file.Open()
		if err != nil {
			return nil, "", errors.New("failed to open file")
		}
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			return nil, "", errors.New("failed to read file")
		}
		return data, filepath.Base(file.Filename), nil
	}

	body := c.Body()
	if len(body) == 0 {
		return nil, "", errors.New("empty body")
	}
	// тело fasthttp переиспользуется после ответа
	return bytes.Clone(body), "body", nil
}

// detectFormat prefers the query parameter, then the file extension.
func detectFormat(query, name string) string {
	if query != "" {
		return strings.ToLower(query)
	}
	if strings.EqualFold(filepath.Ext(name), ".svg") {
		return mapper.FormatSVG
	}
	return mapper.FormatJSON
}

func allFailed(pages []models.PageResult) bool {
	for _, p := range pages {
		if p.Status != models.StatusFailed {
			return false
		}
	}
	return len(pages) > 0
}

// ============================================================
// Runs
// ============================================================

// GetRun возвращает сохраненный прогон
func (h *ConvertHandler) GetRun(c fiber.Ctx) error {
	id := c.Params("id")
	run, err := h.runs.GetRun(c.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "run not found"})
	}
	if err != nil {
		log.Printf("[CONVERTER] Load run %s: %v", id, err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load run"})
	}
	return c.JSON(run)
}

// ListRuns отдает последние прогоны, ?limit=N
func (h *ConvertHandler) ListRuns(c fiber.Ctx) error {
	limit := fiber.Query[int](c, "limit", 50)
	runs, err := h.runs.ListRuns(c.Context(), limit)
	if err != nil {
		log.Printf("[CONVERTER] List runs: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list runs"})
	}
	if runs == nil {
		runs = []models.RunSummary{}
	}
	return c.JSON(fiber.Map{"runs": runs})
}

// GetSource отдает исходный документ прогона
func (h *ConvertHandler) GetSource(c fiber.Ctx) error {
	id := c.Params("id")
	run, err := h.runs.GetRun(c.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "run not found"})
	}
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load run"})
	}
	data, err := h.storage.ReadSource(run.ID, run.Format)
	if err != nil {
		log.Printf("[CONVERTER] Read source %s: %v", id, err)
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "source not found"})
	}
	if run.Format == mapper.FormatSVG {
		c.Set(fiber.HeaderContentType, "image/svg+xml")
	} else {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	return c.Send(data)
}

// DeleteRun удаляет прогон и его исходник
func (h *ConvertHandler) DeleteRun(c fiber.Ctx) error {
	id := c.Params("id")
	err := h.runs.DeleteRun(c.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "run not found"})
	}
	if err != nil {
		log.Printf("[CONVERTER] Delete run %s: %v", id, err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to delete run"})
	}
	if err := h.storage.RemoveRun(id); err != nil {
		log.Printf("[CONVERTER] Remove source %s: %v", id, err)
	}
	return c.SendStatus(http.StatusNoContent)
}
