package routes

import (
	"backend/lib/authentication"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

type fakeWithdrawer struct {
	withdrawn []string
	err       error
}

func (f *fakeWithdrawer) Withdraw(ctx context.Context, userID string) error {
	if f.err != nil {
		return f.err
	}
	f.withdrawn = append(f.withdrawn, userID)
	return nil
}

func withdrawTestApp(users AccountWithdrawer, user_id string) *fiber.App {
	app := fiber.New()
	app.Delete("/auth/me", func(c *fiber.Ctx) error {
		if user_id != "" {
			c.Locals("userID", user_id)
		}
		return WithdrawHandler(c, users)
	})
	return app
}

func TestWithdrawHandler(t *testing.T) {
	users := &fakeWithdrawer{}
	app := withdrawTestApp(users, "user-1")

	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/auth/me", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	if len(users.withdrawn) != 1 || users.withdrawn[0] != "user-1" {
		t.Fatalf("expected withdrawal of user-1, got %v", users.withdrawn)
	}
}

func TestWithdrawHandlerUnknownAccount(t *testing.T) {
	users := &fakeWithdrawer{err: authentication.ErrUserNotFound}
	app := withdrawTestApp(users, "user-1")

	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/auth/me", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestWithdrawHandlerMissingUser(t *testing.T) {
	users := &fakeWithdrawer{}
	app := withdrawTestApp(users, "")

	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/auth/me", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if len(users.withdrawn) != 0 {
		t.Fatalf("expected no withdrawal, got %v", users.withdrawn)
	}
}
