package server

import (
	"backend/lib/server/middleware"
	"backend/lib/server/routes"

	"github.com/gofiber/fiber/v2"
)

func (server *TextWarServer) RegisterBattleRoutes() {
	battle_group := server.App.Group("/battles")
	battle_group.Use(middleware.Protected(&server.AuthService))

	battle_group.Post("/matchmake", func(c *fiber.Ctx) error {
		var data routes.MatchmakeData
		if err := c.BodyParser(&data); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
			})
		}
		return routes.MatchmakeHandler(data, c, &server.Cache, server.Characters, server.Selector)
	})

	battle_group.Post("/resolve", func(c *fiber.Ctx) error {
		var data routes.ResolveBattleData
		if err := c.BodyParser(&data); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
			})
		}
		return routes.ResolveBattleHandler(data, c, &server.Cache, server.Orchestrator)
	})

	battle_group.Get("/", func(c *fiber.Ctx) error {
		return routes.RecentBattlesHandler(c, server.Records)
	})

	battle_group.Get("/:id", func(c *fiber.Ctx) error {
		return routes.BattleDetailHandler(c, server.Records)
	})
}
