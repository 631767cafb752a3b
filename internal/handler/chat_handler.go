package handler

import (
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/medbot-ai/medbot/internal/service"
)

// ChatHandler handles document-grounded chat turns.
type ChatHandler struct {
	rag      *service.RAGService
	composer *service.Composer
	sessions *service.SessionStore

	topK           int
	scoreThreshold float64
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(rag *service.RAGService, composer *service.Composer, sessions *service.SessionStore, topK int, scoreThreshold float64) *ChatHandler {
	return &ChatHandler{
		rag:            rag,
		composer:       composer,
		sessions:       sessions,
		topK:           topK,
		scoreThreshold: scoreThreshold,
	}
}

// Register sets up chat routes.
func (h *ChatHandler) Register(api fiber.Router) {
	chat := api.Group("/chat")
	chat.Post("/", h.Chat)
	chat.Post("/clear", h.ClearSession)
}

// Chat runs one RAG turn: retrieve context, compose a response, record the
// exchange. A turn always yields response text, even when retrieval or
// generation are degraded.
func (h *ChatHandler) Chat(c fiber.Ctx) error {
	var body struct {
		Message   string `json:"message"`
		SessionID string `json:"session_id"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if strings.TrimSpace(body.Message) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "message is required"})
	}
	if body.SessionID == "" {
		body.SessionID = service.DefaultSessionID
	}

	session := h.sessions.GetOrCreate(body.SessionID)

	result := h.rag.Retrieve(c.Context(), body.Message, h.topK, h.scoreThreshold)
	answer := h.composer.Compose(c.Context(), body.Message, result.Chunks, session.History)

	h.sessions.AppendExchange(body.SessionID, body.Message, answer.Text)

	return c.JSON(fiber.Map{
		"response":   answer.Text,
		"sources":    answer.Sources,
		"session_id": body.SessionID,
		"urgency":    service.ClassifyUrgency(body.Message),
		"retrieval":  result.Status,
		"fallback":   answer.Fallback,
	})
}

// ClearSession resets a session's history.
func (h *ChatHandler) ClearSession(c fiber.Ctx) error {
	var body struct {
		SessionID string `json:"session_id"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if body.SessionID == "" {
		body.SessionID = service.DefaultSessionID
	}

	h.sessions.Clear(body.SessionID)

	return c.JSON(fiber.Map{"message": "session cleared", "session_id": body.SessionID})
}
