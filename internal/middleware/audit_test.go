package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medbot-ai/medbot/internal/domain"
)

// captureWriter hands each audit record to the test over a channel, since the
// middleware writes asynchronously.
type captureWriter struct {
	ch chan [5]string
}

func (w captureWriter) WriteAudit(action, resource, details, ip, userAgent string) error {
	w.ch <- [5]string{action, resource, details, ip, userAgent}
	return nil
}

func TestAuditMiddleware_RecordsRequest(t *testing.T) {
	writer := captureWriter{ch: make(chan [5]string, 1)}

	app := fiber.New()
	app.Use(AuditMiddleware(writer))
	app.Get("/api/v1/health", func(c fiber.Ctx) error {
		return c.SendString("ok")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/health", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	select {
	case rec := <-writer.ch:
		assert.Equal(t, domain.AuditActionHTTPRequest, rec[0])
		assert.Equal(t, "/api/v1/health", rec[1])
		assert.Contains(t, rec[2], `"method":"GET"`)
		assert.Contains(t, rec[2], `"status":200`)
	case <-time.After(time.Second):
		t.Fatal("audit record was not written")
	}
}

func TestNopAuditWriter(t *testing.T) {
	assert.NoError(t, NopAuditWriter{}.WriteAudit("a", "r", "d", "ip", "ua"))
}
