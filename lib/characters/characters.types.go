package characters

import "time"

// CharacterSummary is the short form used by list views.
type CharacterSummary struct {
	ID            string `json:"id"`
	CharacterName string `json:"character_name"`
	Description   string `json:"description"`
}

// CharacterDetail carries every column of a character row. The last battle
// timestamp is kept as the raw text the database produced; cooldown logic
// owns the parsing (and its fail-open behavior).
type CharacterDetail struct {
	ID                  string    `json:"id"`
	UserID              string    `json:"user_id"`
	CharacterName       string    `json:"character_name"`
	Description         string    `json:"description"`
	Wins                int       `json:"wins"`
	Losses              int       `json:"losses"`
	Rating              int       `json:"rating"`
	CreatedAt           time.Time `json:"created_at"`
	LastBattleTimestamp *string   `json:"last_battle_timestamp,omitempty"`
}

type CharacterInsert struct {
	UserID        string `json:"user_id"`
	CharacterName string `json:"character_name"`
	Description   string `json:"description"`
}

type LeaderboardItem struct {
	UserDisplayName string `json:"user_display_name"`
	CharacterName   string `json:"character_name"`
	Wins            int    `json:"wins"`
	Losses          int    `json:"losses"`
	Rating          int    `json:"rating"`
}
