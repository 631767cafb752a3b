package handler

import (
	"errors"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/medbot-ai/medbot/internal/adapter/extract"
	"github.com/medbot-ai/medbot/internal/chunker"
	"github.com/medbot-ai/medbot/internal/domain"
	"github.com/medbot-ai/medbot/internal/port"
	"github.com/medbot-ai/medbot/internal/service"
)

// DocumentHandler handles medical document upload and management.
type DocumentHandler struct {
	extractor *extract.PDFExtractor
	splitter  *chunker.Splitter
	index     *service.IndexService
	uploadDir string
}

// NewDocumentHandler creates a new document handler.
func NewDocumentHandler(extractor *extract.PDFExtractor, splitter *chunker.Splitter, index *service.IndexService, uploadDir string) *DocumentHandler {
	return &DocumentHandler{
		extractor: extractor,
		splitter:  splitter,
		index:     index,
		uploadDir: uploadDir,
	}
}

// Register sets up document routes.
func (h *DocumentHandler) Register(api fiber.Router) {
	docs := api.Group("/documents")
	docs.Post("/", h.Upload)
	docs.Get("/", h.List)
	docs.Delete("/:filename", h.Delete)
	docs.Delete("/", h.Clear)
}

// Upload accepts a PDF, extracts and chunks its text and indexes every
// chunk. The upload either fully succeeds or fully fails.
func (h *DocumentHandler) Upload(c fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "no file provided"})
	}
	if fileHeader.Filename == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "no file selected"})
	}
	if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".pdf") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "only PDF files are supported"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "cannot read upload"})
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "cannot read upload"})
	}

	// Store the raw file under a generated name so duplicate uploads never collide.
	storedPath := filepath.Join(h.uploadDir, uuid.NewString()+".pdf")
	if err := os.WriteFile(storedPath, data, 0o644); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "save upload: " + err.Error()})
	}

	text, err := h.extractor.ExtractText(data)
	if err != nil {
		if errors.Is(err, port.ErrEmptyDocument) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "document contains no extractable text"})
		}
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "extract text: " + err.Error()})
	}

	chunks := h.splitter.Split(text)
	if len(chunks) == 0 {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "document contains no extractable text"})
	}

	meta := domain.UploadMeta{
		Filename:     fileHeader.Filename,
		StoredPath:   storedPath,
		DocumentType: "medical_pdf",
	}
	if err := h.index.Add(c.Context(), chunks, meta); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "upload failed: " + err.Error()})
	}

	return c.JSON(fiber.Map{
		"message":          "document uploaded and processed successfully",
		"filename":         fileHeader.Filename,
		"chunks_processed": len(chunks),
	})
}

// List returns all indexed documents grouped by filename.
func (h *DocumentHandler) List(c fiber.Ctx) error {
	docs, err := h.index.ListDocuments(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	total, err := h.index.Count(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"documents":    docs,
		"count":        len(docs),
		"total_chunks": total,
	})
}

// Delete removes all chunks of one document by its original filename.
func (h *DocumentHandler) Delete(c fiber.Ctx) error {
	filename := c.Params("filename")
	if unescaped, err := url.PathUnescape(filename); err == nil {
		filename = unescaped
	}
	if filename == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "filename is required"})
	}

	if err := h.index.DeleteByFilename(c.Context(), filename); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"message": "document deleted", "filename": filename})
}

// Clear removes every indexed chunk.
func (h *DocumentHandler) Clear(c fiber.Ctx) error {
	if err := h.index.Clear(c.Context()); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "all documents cleared"})
}
