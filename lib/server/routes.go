package server

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

func (server *TextWarServer) RegisterRoutes() {
	server.App.Get("/health", server.healthHandler)

	server.RegisterAuthRoutes()
	server.RegisterCharacterRoutes()
	server.RegisterBattleRoutes()
	server.RegisterLeaderboardRoutes()
}

func (server *TextWarServer) healthHandler(c *fiber.Ctx) error {
	resp := map[string]string{
		"db":    strconv.FormatBool(server.Db.Health()),
		"cache": strconv.FormatBool(server.Cache.Health()),
		"vault": strconv.FormatBool(server.VaultManager.Health()),
	}
	return c.JSON(resp)
}
