package routes

import (
	"backend/lib/battles"
	"backend/lib/characters"
	"backend/lib/server/middleware"
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

type CreateCharacterData struct {
	CharacterName string `json:"character_name"`
	Description   string `json:"description"`
}

func ListCharactersHandler(ctx *fiber.Ctx, store *characters.Store) error {
	user_id, err := middleware.GetUserID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "unknown user",
		})
	}

	query_ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	summaries, err := store.OwnedSummaries(query_ctx, user_id)
	if err != nil {
		slog.Error("Cannot list characters", "user_id", user_id, "error", err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "cannot list characters",
		})
	}

	return ctx.JSON(fiber.Map{"characters": summaries})
}

func CreateCharacterHandler(data CreateCharacterData, ctx *fiber.Ctx, store *characters.Store) error {
	user_id, err := middleware.GetUserID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "unknown user",
		})
	}

	character_name := strings.TrimSpace(data.CharacterName)
	description := strings.TrimSpace(data.Description)
	if character_name == "" || description == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "character name and description are required",
		})
	}

	query_ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	count, err := store.CountForUser(query_ctx, user_id)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "cannot create character",
		})
	}
	if count >= characters.MAX_CHARACTER_SLOTS {
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "character slots are full",
		})
	}

	character_id, err := store.Create(query_ctx, characters.CharacterInsert{
		UserID:        user_id,
		CharacterName: character_name,
		Description:   description,
	})
	if err != nil {
		slog.Error("Cannot create character", "user_id", user_id, "error", err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "cannot create character",
		})
	}

	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{"id": character_id})
}

func CharacterDetailHandler(ctx *fiber.Ctx, store *characters.Store) error {
	character_id := ctx.Params("id")

	query_ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	detail, err := store.Detail(query_ctx, character_id)
	if err != nil {
		if errors.Is(err, characters.ErrCharacterNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "character not found",
			})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "cannot load character",
		})
	}

	return ctx.JSON(detail)
}

func DeleteCharacterHandler(ctx *fiber.Ctx, store *characters.Store) error {
	user_id, err := middleware.GetUserID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "unknown user",
		})
	}
	character_id := ctx.Params("id")

	query_ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := store.Delete(query_ctx, character_id, user_id); err != nil {
		if errors.Is(err, characters.ErrCharacterNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "character not found",
			})
		}
		slog.Error("Cannot delete character", "character_id", character_id, "error", err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "cannot delete character",
		})
	}

	return ctx.SendStatus(fiber.StatusNoContent)
}

// CharacterCooldownHandler reports whether a character may start a battle
// right now, and how long is left when it may not.
func CharacterCooldownHandler(ctx *fiber.Ctx, store *characters.Store) error {
	character_id := ctx.Params("id")

	query_ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	last_battle, err := store.LastBattleTimestamp(query_ctx, character_id)
	if err != nil {
		if errors.Is(err, characters.ErrCharacterNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "character not found",
			})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "cannot check cooldown",
		})
	}

	on_cooldown, remaining := battles.EvaluateCooldown(last_battle, time.Now())
	return ctx.JSON(fiber.Map{
		"on_cooldown":       on_cooldown,
		"remaining_seconds": int(remaining.Seconds()),
	})
}

func CharacterBattlesHandler(ctx *fiber.Ctx, store *characters.Store, records *battles.RecordStore) error {
	character_id := ctx.Params("id")

	query_ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := store.Detail(query_ctx, character_id); err != nil {
		if errors.Is(err, characters.ErrCharacterNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "character not found",
			})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "cannot load character",
		})
	}

	history, err := records.ForCharacter(query_ctx, character_id, ctx.QueryInt("limit", 20))
	if err != nil {
		slog.Error("Cannot load battle history", "character_id", character_id, "error", err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "cannot load battle history",
		})
	}

	return ctx.JSON(fiber.Map{"battles": history})
}
