package handler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medbot-ai/medbot/internal/domain"
)

type fakeAuditLister struct {
	gotLimit  int
	gotAction string
	logs      []domain.AuditLog
	err       error
}

func (f *fakeAuditLister) ListAuditLogs(ctx context.Context, limit int, action string) ([]domain.AuditLog, error) {
	f.gotLimit = limit
	f.gotAction = action
	return f.logs, f.err
}

func newAuditApp(lister *fakeAuditLister) *fiber.App {
	app := fiber.New()
	api := app.Group("/api/v1")
	NewAuditHandler(lister).Register(api)
	return app
}

func TestListLogs_Defaults(t *testing.T) {
	lister := &fakeAuditLister{logs: []domain.AuditLog{
		{ID: "1", Action: domain.AuditActionHTTPRequest, Resource: "/api/v1/chat", CreatedAt: time.Now()},
	}}
	app := newAuditApp(lister)

	status, body := doRequest(t, app, "GET", "/api/v1/audit/logs", nil, "")

	assert.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 1, body["count"])
	assert.Equal(t, defaultAuditLimit, lister.gotLimit)
	assert.Empty(t, lister.gotAction)
}

func TestListLogs_ClampsLimit(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"explicit limit passes through", "?limit=25", 25},
		{"huge limit clamped", "?limit=50000", maxAuditLimit},
		{"zero limit falls back", "?limit=0", defaultAuditLimit},
		{"negative limit falls back", "?limit=-5", defaultAuditLimit},
		{"garbage limit falls back", "?limit=lots", defaultAuditLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lister := &fakeAuditLister{}
			app := newAuditApp(lister)

			status, _ := doRequest(t, app, "GET", "/api/v1/audit/logs"+tt.query, nil, "")

			require.Equal(t, fiber.StatusOK, status)
			assert.Equal(t, tt.want, lister.gotLimit)
		})
	}
}

func TestListLogs_ActionFilter(t *testing.T) {
	lister := &fakeAuditLister{}
	app := newAuditApp(lister)

	status, _ := doRequest(t, app, "GET", "/api/v1/audit/logs?action=http_request", nil, "")

	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, domain.AuditActionHTTPRequest, lister.gotAction)
}

func TestListLogs_StoreError(t *testing.T) {
	lister := &fakeAuditLister{err: errors.New("db down")}
	app := newAuditApp(lister)

	status, body := doRequest(t, app, "GET", "/api/v1/audit/logs", nil, "")

	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "db down", body["error"])
}
