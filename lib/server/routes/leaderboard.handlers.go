package routes

import (
	"backend/lib/characters"
	"backend/lib/services"
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

// LeaderboardHandler serves the rating ranking, cached for a short window
// so a busy home screen does not hammer the database.
func LeaderboardHandler(ctx *fiber.Ctx, cache *services.Cache, store *characters.Store) error {
	if cached, err := cache.GetCachedLeaderboard(); err == nil {
		ctx.Set("Content-Type", "application/json")
		return ctx.SendString(cached)
	}

	query_ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	items, err := store.Leaderboard(query_ctx)
	if err != nil {
		slog.Error("Cannot load leaderboard", "error", err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "cannot load leaderboard",
		})
	}

	payload, err := json.Marshal(fiber.Map{"leaderboard": items})
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "cannot load leaderboard",
		})
	}

	if err := cache.SetCachedLeaderboard(string(payload)); err != nil {
		slog.Warn("Cannot cache leaderboard", "error", err)
	}

	ctx.Set("Content-Type", "application/json")
	return ctx.SendString(string(payload))
}
