package handler

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }

func TestHealth(t *testing.T) {
	tests := []struct {
		name   string
		ping   pingFunc
		status int
	}{
		{"up", func(context.Context) error { return nil }, fiber.StatusOK},
		{"down", func(context.Context) error { return errors.New("dial tcp: refused") }, fiber.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/api/health", NewHealthHandler(tt.ping, zap.NewNop()).Check)

			resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/health", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}
