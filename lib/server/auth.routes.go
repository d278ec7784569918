package server

import (
	"backend/lib/server/middleware"
	"backend/lib/server/routes"

	"github.com/gofiber/fiber/v2"
)

func (server *TextWarServer) RegisterAuthRoutes() {
	auth_group := server.App.Group("/auth")

	auth_group.Post("/signup", func(c *fiber.Ctx) error {
		var data routes.SignUpData
		if err := c.BodyParser(&data); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
			})
		}
		return routes.SignUpHandler(data, c, server.AuthService)
	})

	auth_group.Post("/signin", func(c *fiber.Ctx) error {
		var data routes.SignInData
		if err := c.BodyParser(&data); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
			})
		}
		return routes.SignInHandler(data, c, server.AuthService)
	})

	auth_group.Delete("/me",
		middleware.Protected(&server.AuthService),
		func(c *fiber.Ctx) error {
			return routes.WithdrawHandler(c, server.AuthService.Users)
		},
	)
}
