package server

import (
	"backend/lib/server/routes"

	"github.com/gofiber/fiber/v2"
)

func (server *TextWarServer) RegisterLeaderboardRoutes() {
	server.App.Get("/leaderboard", func(c *fiber.Ctx) error {
		return routes.LeaderboardHandler(c, &server.Cache, server.Characters)
	})
}
