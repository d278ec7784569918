package authentication

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Nickname  string    `json:"nickname"`
	CreatedAt time.Time `json:"created_at"`
}

type SessionInfo struct {
	User        User      `json:"user"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type UserStore struct {
	pool *pgxpool.Pool
}

func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

// SignUp creates a new email/password account
func (s *UserStore) SignUp(ctx context.Context, email string, password string, nickname string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	query_ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var existing_id string
	err := s.pool.QueryRow(query_ctx,
		`SELECT id::text FROM users WHERE email = $1`,
		email,
	).Scan(&existing_id)
	if err == nil {
		return nil, ErrUserExists
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("database error: %w", err)
	}

	password_hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := User{Email: email, Nickname: nickname}
	err = s.pool.QueryRow(query_ctx,
		`INSERT INTO users (email, password_hash, nickname)
		 VALUES ($1, $2, $3)
		 RETURNING id::text, created_at`,
		email, string(password_hash), nickname,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &user, nil
}

// SignIn verifies an email/password pair. A missing account and a wrong
// password both return ErrInvalidCredentials.
func (s *UserStore) SignIn(ctx context.Context, email string, password string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	query_ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var user User
	var password_hash string
	err := s.pool.QueryRow(query_ctx,
		`SELECT id::text, email, nickname, password_hash, created_at
		 FROM users WHERE email = $1`,
		email,
	).Scan(&user.ID, &user.Email, &user.Nickname, &password_hash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(password_hash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return &user, nil
}

// Withdraw deletes the account and everything it owns: battle records that
// involve any of the user's characters, the characters themselves, then the
// user row, in one transaction.
func (s *UserStore) Withdraw(ctx context.Context, userID string) error {
	query_ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	tx, err := s.pool.Begin(query_ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(query_ctx)

	_, err = tx.Exec(query_ctx,
		`DELETE FROM battle_records
		 WHERE character_a_id IN (SELECT id FROM characters WHERE user_id = $1::uuid)
		    OR character_b_id IN (SELECT id FROM characters WHERE user_id = $1::uuid)
		    OR winner_id IN (SELECT id FROM characters WHERE user_id = $1::uuid)`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete battle records for user %s: %w", userID, err)
	}

	_, err = tx.Exec(query_ctx,
		`DELETE FROM characters WHERE user_id = $1::uuid`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete characters for user %s: %w", userID, err)
	}

	tag, err := tx.Exec(query_ctx,
		`DELETE FROM users WHERE id = $1::uuid`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete user %s: %w", userID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return tx.Commit(query_ctx)
}
