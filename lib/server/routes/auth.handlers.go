package routes

import (
	"backend/lib/authentication"
	"backend/lib/server/middleware"
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

type SignUpData struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Nickname string `json:"nickname"`
}

type SignInData struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

const MIN_PASSWORD_LENGTH = 8

func SignUpHandler(data SignUpData, ctx *fiber.Ctx, auth *authentication.AuthService) error {
	if data.Email == "" || !strings.Contains(data.Email, "@") {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "a valid email is required",
		})
	}
	if len(data.Password) < MIN_PASSWORD_LENGTH {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "password must be at least 8 characters",
		})
	}
	if strings.TrimSpace(data.Nickname) == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "nickname is required",
		})
	}

	query_ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user, err := auth.Users.SignUp(query_ctx, data.Email, data.Password, strings.TrimSpace(data.Nickname))
	if err != nil {
		if errors.Is(err, authentication.ErrUserExists) {
			return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "already registered",
			})
		}
		slog.Error("Sign up failed", "error", err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "cannot create account",
		})
	}

	return signedSession(ctx, auth, user, fiber.StatusCreated)
}

func SignInHandler(data SignInData, ctx *fiber.Ctx, auth *authentication.AuthService) error {
	query_ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user, err := auth.Users.SignIn(query_ctx, data.Email, data.Password)
	if err != nil {
		if errors.Is(err, authentication.ErrInvalidCredentials) {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid credentials",
			})
		}
		slog.Error("Sign in failed", "error", err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "cannot sign in",
		})
	}

	return signedSession(ctx, auth, user, fiber.StatusOK)
}

// AccountWithdrawer is the slice of the user store withdrawal needs.
type AccountWithdrawer interface {
	Withdraw(ctx context.Context, userID string) error
}

// WithdrawHandler deletes the signed-in account together with its
// characters and their battle records. There is no undo; the client
// confirms before calling.
func WithdrawHandler(ctx *fiber.Ctx, users AccountWithdrawer) error {
	user_id, err := middleware.GetUserID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "unknown user",
		})
	}

	query_ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := users.Withdraw(query_ctx, user_id); err != nil {
		if errors.Is(err, authentication.ErrUserNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "user not found",
			})
		}
		slog.Error("Account withdrawal failed", "user_id", user_id, "error", err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "cannot delete account",
		})
	}

	slog.Info("Account withdrawn", "user_id", user_id)
	return ctx.SendStatus(fiber.StatusNoContent)
}

func signedSession(ctx *fiber.Ctx, auth *authentication.AuthService, user *authentication.User, status int) error {
	access_token, expires_at, err := auth.Tokens.GenerateToken(user.ID, user.Email)
	if err != nil {
		slog.Error("Token generation failed", "error", err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "cannot issue token",
		})
	}

	return ctx.Status(status).JSON(authentication.SessionInfo{
		User:        *user,
		AccessToken: access_token,
		ExpiresAt:   expires_at,
	})
}
