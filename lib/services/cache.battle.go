package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// BattleSessionData is the matched pair held between matchmaking and
// resolution. The session expiring means the player has to matchmake again;
// the cooldown they already started still applies.
type BattleSessionData struct {
	UserID        string    `json:"user_id"`
	MyCharacterID string    `json:"my_character_id"`
	OpponentID    string    `json:"opponent_id"`
	MatchedAt     time.Time `json:"matched_at"`
}

const BATTLE_SESSION_TTL = 10 * time.Minute

func (cache *Cache) CreateBattleSession(session_data *BattleSessionData) (string, error) {
	ctx := context.Background()

	battle_session_id := uuid.New().String()

	battle_session_key := fmt.Sprintf("battle:session:%s", battle_session_id)

	session_data_json, err := json.Marshal(session_data)
	if err != nil {
		return "", fmt.Errorf("failed to marshal battle session data: %w", err)
	}
	err = cache.Db.Set(ctx, battle_session_key, session_data_json, BATTLE_SESSION_TTL).Err()
	if err != nil {
		return "", fmt.Errorf("failed to create battle session cache data: %w", err)
	}

	return battle_session_id, nil
}

func (cache *Cache) GetBattleSession(battle_session_id string) (BattleSessionData, error) {
	ctx := context.Background()

	battle_session_key := fmt.Sprintf("battle:session:%s", battle_session_id)

	session_data_json, err := cache.Db.Get(ctx, battle_session_key).Result()
	if err == redis.Nil {
		return BattleSessionData{}, fmt.Errorf("no existing battle session")
	} else if err != nil {
		return BattleSessionData{}, fmt.Errorf("failed to read battle session: %w", err)
	}

	var session_data BattleSessionData
	if err := json.Unmarshal([]byte(session_data_json), &session_data); err != nil {
		return BattleSessionData{}, fmt.Errorf("failed to unmarshal battle session data: %w", err)
	}

	return session_data, nil
}

func (cache *Cache) DeleteBattleSession(battle_session_id string) error {
	ctx := context.Background()

	battle_session_key := fmt.Sprintf("battle:session:%s", battle_session_id)
	_, err := cache.Db.Del(ctx, battle_session_key).Result()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("failed to delete battle session: %w", err)
	}
	return nil
}
