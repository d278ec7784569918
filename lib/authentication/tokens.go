package authentication

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenExpired = errors.New("token has expired")
	ErrTokenInvalid = errors.New("token is invalid")
)

type CustomClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

type JWTTokenService struct {
	signingKey    []byte
	tokenDuration time.Duration
}

type TokenConfig struct {
	SigningKey    string
	TokenDuration time.Duration
}

func NewJWTTokenService(config TokenConfig) *JWTTokenService {
	return &JWTTokenService{
		signingKey:    []byte(config.SigningKey),
		tokenDuration: config.TokenDuration,
	}
}

// GenerateToken creates a signed access token for the given user
func (s *JWTTokenService) GenerateToken(userID string, email string) (string, time.Time, error) {
	expires_at := time.Now().Add(s.tokenDuration)

	claims := CustomClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expires_at),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
		UserID: userID,
		Email:  email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	access_token, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return access_token, expires_at, nil
}

// ValidateToken parses and verifies an access token, returning its claims
func (s *JWTTokenService) ValidateToken(access_token string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(access_token, &CustomClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
