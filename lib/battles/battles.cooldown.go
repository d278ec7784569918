package battles

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// CooldownDuration is the window after a battle during which a character
// cannot be matched again.
const CooldownDuration = 30 * time.Second

// Layouts the characters table has been observed to hand back, RFC 3339 from
// API writes and the Postgres text form from now() columns.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05-07",
}

// ParseBattleTimestamp parses a stored last-battle timestamp. The boolean is
// false when the text matches no known layout.
func ParseBattleTimestamp(raw string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// EvaluateCooldown reports whether a character with the given last-battle
// timestamp is still cooling down at the given instant, and how long remains.
//
// A nil timestamp means the character has never fought and may always fight.
// A timestamp that fails to parse is deliberately treated the same way:
// a data glitch must never lock a player out of the game.
func EvaluateCooldown(lastBattle *string, now time.Time) (bool, time.Duration) {
	if lastBattle == nil {
		return false, 0
	}

	lastBattleTime, ok := ParseBattleTimestamp(*lastBattle)
	if !ok {
		slog.Warn("Unparseable last battle timestamp, treating as no cooldown", "raw", *lastBattle)
		return false, 0
	}

	elapsed := now.Sub(lastBattleTime)
	if elapsed < CooldownDuration {
		remaining := CooldownDuration - elapsed
		if remaining < 0 {
			remaining = 0
		}
		return true, remaining
	}
	return false, 0
}

type CooldownLedger interface {
	TouchLastBattle(ctx context.Context, characterID string) error
}

// StartCooldowns stamps every given character's last-battle timestamp. The
// writes are independent: one participant's ledger failing must not stop
// the other's, so no shared cancellation ties them together. The first
// error is returned after all writes have been attempted.
func StartCooldowns(ctx context.Context, ledger CooldownLedger, characterIDs ...string) error {
	var group errgroup.Group
	for _, character_id := range characterIDs {
		character_id := character_id
		group.Go(func() error {
			return ledger.TouchLastBattle(ctx, character_id)
		})
	}
	return group.Wait()
}
