package authentication

import (
	"backend/lib/vault"
	"fmt"
	"time"
)

// AuthService bundles the user store and token service behind one entry
// point wired at server startup.
type AuthService struct {
	Users  *UserStore
	Tokens *JWTTokenService
}

func NewAuthService(users *UserStore, vault_manager *vault.VaultManager) (*AuthService, error) {
	signing_key, err := vault_manager.GetApiKey("TEXTWAR_JWT_KEY")
	if err != nil {
		return nil, fmt.Errorf("failed to load jwt signing key: %w", err)
	}

	return &AuthService{
		Users: users,
		Tokens: NewJWTTokenService(TokenConfig{
			SigningKey:    signing_key,
			TokenDuration: 24 * time.Hour,
		}),
	}, nil
}
