package middleware

import (
	"net/http/httptest"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

func TestTransferRateLimit(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()

	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer cache.Close()

	app := fiber.New()
	app.Post("/transfers", TransferRateLimit(cache, 3), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusCreated)
	})

	do := func() int {
		req := httptest.NewRequest(fiber.MethodPost, "/transfers", nil)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		return resp.StatusCode
	}

	for i := 0; i < 3; i++ {
		if got := do(); got != fiber.StatusCreated {
			t.Fatalf("request %d should pass, got %d", i+1, got)
		}
	}
	if got := do(); got != fiber.StatusTooManyRequests {
		t.Fatalf("fourth request should be limited, got %d", got)
	}
}

func TestTransferRateLimitWithoutCache(t *testing.T) {
	app := fiber.New()
	app.Post("/transfers", TransferRateLimit(nil, 1), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusCreated)
	})

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(fiber.MethodPost, "/transfers", nil)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		if resp.StatusCode != fiber.StatusCreated {
			t.Fatalf("limiter must be a no-op without redis, got %d", resp.StatusCode)
		}
	}
}
