package battles

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestEvaluateCooldownNeverFought(t *testing.T) {
	on_cooldown, remaining := EvaluateCooldown(nil, time.Now())
	if on_cooldown {
		t.Fatalf("expected no cooldown for a character that never fought")
	}
	if remaining != 0 {
		t.Fatalf("expected zero remaining, got %v", remaining)
	}
}

func TestEvaluateCooldownActive(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	last := now.Add(-10 * time.Second).Format(time.RFC3339Nano)

	on_cooldown, remaining := EvaluateCooldown(&last, now)
	if !on_cooldown {
		t.Fatalf("expected cooldown 10s after a battle")
	}
	if remaining != 20*time.Second {
		t.Fatalf("expected 20s remaining, got %v", remaining)
	}
}

func TestEvaluateCooldownExpired(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		elapsed time.Duration
	}{
		{name: "exactly at boundary", elapsed: CooldownDuration},
		{name: "long after", elapsed: time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			last := now.Add(-tt.elapsed).Format(time.RFC3339)
			on_cooldown, remaining := EvaluateCooldown(&last, now)
			if on_cooldown {
				t.Fatalf("expected no cooldown after %v", tt.elapsed)
			}
			if remaining != 0 {
				t.Fatalf("expected zero remaining, got %v", remaining)
			}
		})
	}
}

func TestEvaluateCooldownUnparseableFailsOpen(t *testing.T) {
	garbage := "not a timestamp"
	on_cooldown, remaining := EvaluateCooldown(&garbage, time.Now())
	if on_cooldown {
		t.Fatalf("expected a broken timestamp to never block a battle")
	}
	if remaining != 0 {
		t.Fatalf("expected zero remaining, got %v", remaining)
	}
}

func TestParseBattleTimestampLayouts(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "rfc3339", raw: "2025-06-01T12:00:00Z"},
		{name: "rfc3339 nano", raw: "2025-06-01T12:00:00.123456789Z"},
		{name: "postgres text", raw: "2025-06-01 12:00:00.123456+00"},
		{name: "postgres text no fraction", raw: "2025-06-01 12:00:00+00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := ParseBattleTimestamp(tt.raw); !ok {
				t.Fatalf("expected %q to parse", tt.raw)
			}
		})
	}

	if _, ok := ParseBattleTimestamp("yesterday"); ok {
		t.Fatalf("expected garbage to fail parsing")
	}
}

type fakeCooldownLedger struct {
	mu      sync.Mutex
	touched []string
	failFor map[string]error
}

func (f *fakeCooldownLedger) TouchLastBattle(ctx context.Context, characterID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err, ok := f.failFor[characterID]; ok {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched = append(f.touched, characterID)
	return nil
}

func TestStartCooldownsTouchesBoth(t *testing.T) {
	ledger := &fakeCooldownLedger{}

	if err := StartCooldowns(context.Background(), ledger, "char-a", "char-b"); err != nil {
		t.Fatalf("start cooldowns: %v", err)
	}
	if len(ledger.touched) != 2 {
		t.Fatalf("expected both ledgers stamped, got %v", ledger.touched)
	}
}

func TestStartCooldownsOneFailureDoesNotStopTheOther(t *testing.T) {
	ledger := &fakeCooldownLedger{
		failFor: map[string]error{"char-a": errors.New("write failed")},
	}

	err := StartCooldowns(context.Background(), ledger, "char-a", "char-b")
	if err == nil {
		t.Fatalf("expected the failing write's error to surface")
	}
	if len(ledger.touched) != 1 || ledger.touched[0] != "char-b" {
		t.Fatalf("expected the other ledger still stamped, got %v", ledger.touched)
	}
}

func TestStartCooldownsRunsAfterRequestCancelled(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	cancel()

	ledger := &fakeCooldownLedger{}
	if err := StartCooldowns(context.WithoutCancel(parent), ledger, "char-a", "char-b"); err != nil {
		t.Fatalf("start cooldowns: %v", err)
	}
	if len(ledger.touched) != 2 {
		t.Fatalf("expected stamps despite cancelled request, got %v", ledger.touched)
	}
}
