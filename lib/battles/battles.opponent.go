package battles

import (
	"backend/lib/characters"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

var (
	ErrNoOpponentFound = errors.New("no opponent found")
)

const (
	// OpponentPoolSize bounds the candidate list fetched per search.
	OpponentPoolSize = 50

	// OpponentSearchDelay is the deliberate "searching for an opponent"
	// pause. Matchmaking is presented as a waiting state, so the delay is
	// part of the contract, not an implementation accident.
	OpponentSearchDelay = 3 * time.Second

	candidatePoolTTL = 30 * time.Second
)

// OpponentSelector draws one random opponent from a bounded pool of
// characters owned by other players. The pool is memoized briefly per
// caller so repeated searches don't hammer the characters table.
type OpponentSelector struct {
	candidates  CandidateLister
	pool        *gocache.Cache
	searchDelay time.Duration
	poolSize    int
}

type CandidateLister interface {
	OpponentCandidates(ctx context.Context, excludeOwnerID string, limit int) ([]characters.CharacterDetail, error)
}

func NewOpponentSelector(candidates CandidateLister) *OpponentSelector {
	return &OpponentSelector{
		candidates:  candidates,
		pool:        gocache.New(candidatePoolTTL, 2*candidatePoolTTL),
		searchDelay: OpponentSearchDelay,
		poolSize:    OpponentPoolSize,
	}
}

// Select returns one uniformly random opponent not owned by excludeOwnerID.
// The search delay is cancellable through ctx; the underlying candidate
// fetch honors ctx as well.
func (s *OpponentSelector) Select(ctx context.Context, excludeOwnerID string) (characters.CharacterDetail, error) {
	if s.searchDelay > 0 {
		timer := time.NewTimer(s.searchDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return characters.CharacterDetail{}, ctx.Err()
		case <-timer.C:
		}
	}

	candidates, err := s.candidatePool(ctx, excludeOwnerID)
	if err != nil {
		return characters.CharacterDetail{}, fmt.Errorf("failed to fetch opponent candidates: %w", err)
	}
	if len(candidates) == 0 {
		return characters.CharacterDetail{}, ErrNoOpponentFound
	}

	picked := candidates[rand.Intn(len(candidates))]
	slog.Debug("Opponent selected", "opponent_id", picked.ID, "pool_size", len(candidates))
	return picked, nil
}

func (s *OpponentSelector) candidatePool(ctx context.Context, excludeOwnerID string) ([]characters.CharacterDetail, error) {
	if cached, ok := s.pool.Get(excludeOwnerID); ok {
		return cached.([]characters.CharacterDetail), nil
	}

	candidates, err := s.candidates.OpponentCandidates(ctx, excludeOwnerID, s.poolSize)
	if err != nil {
		return nil, err
	}
	s.pool.Set(excludeOwnerID, candidates, gocache.DefaultExpiration)
	return candidates, nil
}
