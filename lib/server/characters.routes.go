package server

import (
	"backend/lib/server/middleware"
	"backend/lib/server/routes"

	"github.com/gofiber/fiber/v2"
)

func (server *TextWarServer) RegisterCharacterRoutes() {
	characters_group := server.App.Group("/characters")
	characters_group.Use(middleware.Protected(&server.AuthService))

	characters_group.Get("/", func(c *fiber.Ctx) error {
		return routes.ListCharactersHandler(c, server.Characters)
	})

	characters_group.Post("/", func(c *fiber.Ctx) error {
		var data routes.CreateCharacterData
		if err := c.BodyParser(&data); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
			})
		}
		return routes.CreateCharacterHandler(data, c, server.Characters)
	})

	characters_group.Get("/:id", func(c *fiber.Ctx) error {
		return routes.CharacterDetailHandler(c, server.Characters)
	})

	characters_group.Delete("/:id", func(c *fiber.Ctx) error {
		return routes.DeleteCharacterHandler(c, server.Characters)
	})

	characters_group.Get("/:id/cooldown", func(c *fiber.Ctx) error {
		return routes.CharacterCooldownHandler(c, server.Characters)
	})

	characters_group.Get("/:id/battles", func(c *fiber.Ctx) error {
		return routes.CharacterBattlesHandler(c, server.Characters, server.Records)
	})
}
