package routes

import (
	"backend/lib/battles"
	"backend/lib/characters"
	"backend/lib/server/middleware"
	"backend/lib/services"
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

type MatchmakeData struct {
	CharacterID string `json:"character_id"`
}

type ResolveBattleData struct {
	SessionID string `json:"session_id"`
}

// MatchmakeHandler finds an opponent for the given character. The match is
// parked in the cache as a battle session; both characters' cooldowns start
// at match time, not at resolution.
func MatchmakeHandler(data MatchmakeData, ctx *fiber.Ctx, cache *services.Cache, store *characters.Store, selector *battles.OpponentSelector) error {
	user_id, err := middleware.GetUserID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "unknown user",
		})
	}

	query_ctx, cancel := context.WithTimeout(ctx.Context(), 30*time.Second)
	defer cancel()

	my_character, err := store.Detail(query_ctx, data.CharacterID)
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
	if my_character.UserID != user_id {
		return ctx.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "not your character",
		})
	}

	on_cooldown, remaining := battles.EvaluateCooldown(my_character.LastBattleTimestamp, time.Now())
	if on_cooldown {
		return ctx.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error":             "character is on cooldown",
			"remaining_seconds": int(remaining.Seconds()),
		})
	}

	opponent, err := selector.Select(query_ctx, user_id)
	if err != nil {
		if errors.Is(err, battles.ErrNoOpponentFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "no opponent found",
			})
		}
		slog.Error("Opponent selection failed", "user_id", user_id, "error", err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "cannot find an opponent",
		})
	}

	session_id, err := cache.CreateBattleSession(&services.BattleSessionData{
		UserID:        user_id,
		MyCharacterID: my_character.ID,
		OpponentID:    opponent.ID,
		MatchedAt:     time.Now(),
	})
	if err != nil {
		slog.Error("Cannot create battle session", "error", err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "cannot create battle session",
		})
	}

	// Cooldowns start the moment the match exists. The writes are detached
	// from the request so a client dropping the connection here cannot leave
	// one participant stamped and the other not.
	touch_ctx, touch_cancel := context.WithTimeout(context.WithoutCancel(ctx.Context()), 10*time.Second)
	defer touch_cancel()
	if err := battles.StartCooldowns(touch_ctx, store, my_character.ID, opponent.ID); err != nil {
		slog.Error("Cannot start cooldowns", "error", err)
	}

	return ctx.JSON(fiber.Map{
		"session_id": session_id,
		"opponent": characters.CharacterSummary{
			ID:            opponent.ID,
			CharacterName: opponent.CharacterName,
			Description:   opponent.Description,
		},
	})
}

// ResolveBattleHandler runs the battle behind a matched session. The
// session is consumed up front so a retry cannot replay the same match.
// Generation keeps running even if the client disconnects mid-request.
func ResolveBattleHandler(data ResolveBattleData, ctx *fiber.Ctx, cache *services.Cache, orchestrator *battles.Orchestrator) error {
	user_id, err := middleware.GetUserID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "unknown user",
		})
	}

	session, err := cache.GetBattleSession(data.SessionID)
	if err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "no matched battle for this session",
		})
	}
	if session.UserID != user_id {
		return ctx.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "not your battle session",
		})
	}
	if err := cache.DeleteBattleSession(data.SessionID); err != nil {
		slog.Warn("Cannot delete battle session", "session_id", data.SessionID, "error", err)
	}

	battle_ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx.Context()), 3*time.Minute)
	defer cancel()

	outcome, err := orchestrator.ResolveBattle(battle_ctx, session.MyCharacterID, session.OpponentID, user_id)
	if err != nil {
		slog.Error("Battle resolution failed", "session_id", data.SessionID, "error", err)
		return ctx.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "battle generation failed",
		})
	}

	return ctx.JSON(outcome)
}

func RecentBattlesHandler(ctx *fiber.Ctx, records *battles.RecordStore) error {
	query_ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	recent, err := records.Recent(query_ctx, ctx.QueryInt("limit", 20))
	if err != nil {
		slog.Error("Cannot list battles", "error", err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "cannot list battles",
		})
	}

	return ctx.JSON(fiber.Map{"battles": recent})
}

func BattleDetailHandler(ctx *fiber.Ctx, records *battles.RecordStore) error {
	record_id := ctx.Params("id")

	query_ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	record, err := records.Get(query_ctx, record_id)
	if err != nil {
		if errors.Is(err, battles.ErrRecordNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "battle not found",
			})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "cannot load battle",
		})
	}

	return ctx.JSON(record)
}
