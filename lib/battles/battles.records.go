package battles

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrRecordNotFound = errors.New("battle record not found")
)

// BattleRecordInput is what gets inserted; id and created_at are assigned by
// the database, and image_url is always backfilled later if at all.
type BattleRecordInput struct {
	CharacterAID string  `json:"character_a_id"`
	CharacterBID string  `json:"character_b_id"`
	WinnerID     *string `json:"winner_id,omitempty"`
	Narrative    *string `json:"narrative,omitempty"`
	ImageURL     *string `json:"image_url,omitempty"`
}

// BattleRecord is the read model, with participant names joined on for
// history views.
type BattleRecord struct {
	ID             string    `json:"id"`
	CharacterAID   string    `json:"character_a_id"`
	CharacterBID   string    `json:"character_b_id"`
	WinnerID       *string   `json:"winner_id,omitempty"`
	Narrative      *string   `json:"narrative,omitempty"`
	ImageURL       *string   `json:"image_url,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	CharacterAName *string   `json:"character_a_name,omitempty"`
	CharacterBName *string   `json:"character_b_name,omitempty"`
	WinnerName     *string   `json:"winner_name,omitempty"`
}

type RecordStore struct {
	pool *pgxpool.Pool
}

func NewRecordStore(pool *pgxpool.Pool) *RecordStore {
	return &RecordStore{pool: pool}
}

func (s *RecordStore) Save(ctx context.Context, input BattleRecordInput) (string, error) {
	var id string
	err := s.pool.QueryRow(ctx,
		`INSERT INTO battle_records (character_a_id, character_b_id, winner_id, narrative, image_url)
		 VALUES ($1::uuid, $2::uuid, $3::uuid, $4, $5) RETURNING id::text`,
		input.CharacterAID, input.CharacterBID, input.WinnerID, input.Narrative, input.ImageURL,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to save battle record: %w", err)
	}
	return id, nil
}

// UpdateImageURL backfills the one field that mutates after creation.
func (s *RecordStore) UpdateImageURL(ctx context.Context, recordID string, imageURL string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE battle_records SET image_url = $2 WHERE id = $1::uuid`,
		recordID, imageURL,
	)
	if err != nil {
		return fmt.Errorf("failed to update image url for record %s: %w", recordID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

const recordColumns = `r.id::text, r.character_a_id::text, r.character_b_id::text,
	r.winner_id::text, r.narrative, r.image_url, r.created_at,
	ca.character_name, cb.character_name, cw.character_name`

const recordJoins = `FROM battle_records r
	LEFT JOIN characters ca ON ca.id = r.character_a_id
	LEFT JOIN characters cb ON cb.id = r.character_b_id
	LEFT JOIN characters cw ON cw.id = r.winner_id`

func scanRecord(row pgx.Row) (BattleRecord, error) {
	var record BattleRecord
	err := row.Scan(
		&record.ID,
		&record.CharacterAID,
		&record.CharacterBID,
		&record.WinnerID,
		&record.Narrative,
		&record.ImageURL,
		&record.CreatedAt,
		&record.CharacterAName,
		&record.CharacterBName,
		&record.WinnerName,
	)
	return record, err
}

func (s *RecordStore) Get(ctx context.Context, recordID string) (BattleRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+recordColumns+` `+recordJoins+` WHERE r.id = $1::uuid`,
		recordID,
	)
	record, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return BattleRecord{}, ErrRecordNotFound
	}
	if err != nil {
		return BattleRecord{}, fmt.Errorf("failed to fetch battle record %s: %w", recordID, err)
	}
	return record, nil
}

func (s *RecordStore) Recent(ctx context.Context, limit int) ([]BattleRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+recordColumns+` `+recordJoins+` ORDER BY r.created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch battle records: %w", err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

func (s *RecordStore) ForCharacter(ctx context.Context, characterID string, limit int) ([]BattleRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+recordColumns+` `+recordJoins+`
		 WHERE r.character_a_id = $1::uuid OR r.character_b_id = $1::uuid
		 ORDER BY r.created_at DESC LIMIT $2`,
		characterID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch battle records for character %s: %w", characterID, err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

func collectRecords(rows pgx.Rows) ([]BattleRecord, error) {
	records := []BattleRecord{}
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan battle record row: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
