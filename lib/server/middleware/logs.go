package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func Logger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start_time := time.Now()
		request_id := uuid.NewString()
		c.Locals("requestID", request_id)

		err := c.Next()

		request_attrs := []slog.Attr{
			slog.String("request_id", request_id),
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("ip", c.IP()),
			slog.Int("status_code", c.Response().StatusCode()),
			slog.Duration("response_time", time.Since(start_time)),
		}
		if user_id, ok := c.Locals("userID").(string); ok {
			request_attrs = append(request_attrs, slog.String("user_id", user_id))
		}

		if err != nil {
			slog.LogAttrs(context.Background(), slog.LevelError, "Request error", request_attrs...)
		} else {
			slog.LogAttrs(context.Background(), slog.LevelInfo, "Request processed", request_attrs...)
		}

		return err
	}
}
