package characters

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrCharacterNotFound = errors.New("character not found")
)

// MAX_CHARACTER_SLOTS is how many characters one user may own.
const MAX_CHARACTER_SLOTS = 3

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const detailColumns = `id::text, user_id::text, character_name, description, wins, losses, rating, created_at, last_battle_timestamp::text`

func scanDetail(row pgx.Row) (CharacterDetail, error) {
	var detail CharacterDetail
	err := row.Scan(
		&detail.ID,
		&detail.UserID,
		&detail.CharacterName,
		&detail.Description,
		&detail.Wins,
		&detail.Losses,
		&detail.Rating,
		&detail.CreatedAt,
		&detail.LastBattleTimestamp,
	)
	return detail, err
}

func (s *Store) Detail(ctx context.Context, characterID string) (CharacterDetail, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+detailColumns+` FROM characters WHERE id = $1::uuid`,
		characterID,
	)
	detail, err := scanDetail(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return CharacterDetail{}, ErrCharacterNotFound
	}
	if err != nil {
		return CharacterDetail{}, fmt.Errorf("failed to fetch character %s: %w", characterID, err)
	}
	return detail, nil
}

func (s *Store) OwnedSummaries(ctx context.Context, userID string) ([]CharacterSummary, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id::text, character_name, description
		 FROM characters WHERE user_id = $1::uuid
		 ORDER BY created_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list characters: %w", err)
	}
	defer rows.Close()

	summaries := []CharacterSummary{}
	for rows.Next() {
		var summary CharacterSummary
		if err := rows.Scan(&summary.ID, &summary.CharacterName, &summary.Description); err != nil {
			return nil, fmt.Errorf("failed to scan character row: %w", err)
		}
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

// OpponentCandidates returns up to limit characters not owned by the given
// user. Ordering is whatever the database gives back; the caller picks from
// the slice so the selection policy stays testable on our side.
func (s *Store) OpponentCandidates(ctx context.Context, excludeOwnerID string, limit int) ([]CharacterDetail, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+detailColumns+` FROM characters WHERE user_id <> $1::uuid LIMIT $2`,
		excludeOwnerID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list opponent candidates: %w", err)
	}
	defer rows.Close()

	candidates := []CharacterDetail{}
	for rows.Next() {
		detail, err := scanDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan candidate row: %w", err)
		}
		candidates = append(candidates, detail)
	}
	return candidates, rows.Err()
}

func (s *Store) Create(ctx context.Context, insert CharacterInsert) (string, error) {
	var id string
	err := s.pool.QueryRow(ctx,
		`INSERT INTO characters (user_id, character_name, description)
		 VALUES ($1::uuid, $2, $3) RETURNING id::text`,
		insert.UserID, insert.CharacterName, insert.Description,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to create character: %w", err)
	}
	return id, nil
}

// Delete removes a character owned by userID, together with every battle
// record that references it as a participant or winner.
func (s *Store) Delete(ctx context.Context, characterID string, userID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`DELETE FROM battle_records
		 WHERE character_a_id = $1::uuid OR character_b_id = $1::uuid OR winner_id = $1::uuid`,
		characterID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete battle records for character %s: %w", characterID, err)
	}

	tag, err := tx.Exec(ctx,
		`DELETE FROM characters WHERE id = $1::uuid AND user_id = $2::uuid`,
		characterID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete character %s: %w", characterID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCharacterNotFound
	}

	return tx.Commit(ctx)
}

func (s *Store) CountForUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM characters WHERE user_id = $1::uuid`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count characters: %w", err)
	}
	return count, nil
}

// IncrementWins adds one win. Counters only ever go up; there is no
// decrement path anywhere in the service.
func (s *Store) IncrementWins(ctx context.Context, characterID string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE characters SET wins = wins + 1, rating = rating + 10 WHERE id = $1::uuid`,
		characterID,
	)
	if err != nil {
		return fmt.Errorf("failed to increment wins for %s: %w", characterID, err)
	}
	return nil
}

func (s *Store) IncrementLosses(ctx context.Context, characterID string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE characters SET losses = losses + 1, rating = greatest(rating - 10, 0) WHERE id = $1::uuid`,
		characterID,
	)
	if err != nil {
		return fmt.Errorf("failed to increment losses for %s: %w", characterID, err)
	}
	return nil
}

// LastBattleTimestamp returns the raw timestamp text, nil when the character
// has never fought.
func (s *Store) LastBattleTimestamp(ctx context.Context, characterID string) (*string, error) {
	var ts *string
	err := s.pool.QueryRow(ctx,
		`SELECT last_battle_timestamp::text FROM characters WHERE id = $1::uuid`,
		characterID,
	).Scan(&ts)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCharacterNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch last battle timestamp for %s: %w", characterID, err)
	}
	return ts, nil
}

// TouchLastBattle stamps the character's cooldown to now(). Last write wins;
// two touches in quick succession leave the later time in place.
func (s *Store) TouchLastBattle(ctx context.Context, characterID string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE characters SET last_battle_timestamp = now() WHERE id = $1::uuid`,
		characterID,
	)
	if err != nil {
		return fmt.Errorf("failed to touch last battle timestamp for %s: %w", characterID, err)
	}
	return nil
}

// Leaderboard joins the owning user's display name onto every character,
// best rating first.
func (s *Store) Leaderboard(ctx context.Context) ([]LeaderboardItem, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT coalesce(u.nickname, ''), c.character_name, c.wins, c.losses, c.rating
		 FROM characters c
		 LEFT JOIN users u ON u.id = c.user_id
		 ORDER BY c.rating DESC, c.wins DESC, c.character_name ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch leaderboard: %w", err)
	}
	defer rows.Close()

	items := []LeaderboardItem{}
	for rows.Next() {
		var item LeaderboardItem
		if err := rows.Scan(&item.UserDisplayName, &item.CharacterName, &item.Wins, &item.Losses, &item.Rating); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
