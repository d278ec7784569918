package battles

import (
	"backend/lib/ai"
	"backend/lib/characters"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"testing"
)

type fakeCharacterSource struct {
	byID   map[string]characters.CharacterDetail
	wins   map[string]int
	losses map[string]int
}

func newFakeCharacterSource(details ...characters.CharacterDetail) *fakeCharacterSource {
	source := &fakeCharacterSource{
		byID:   map[string]characters.CharacterDetail{},
		wins:   map[string]int{},
		losses: map[string]int{},
	}
	for _, detail := range details {
		source.byID[detail.ID] = detail
	}
	return source
}

func (f *fakeCharacterSource) Detail(ctx context.Context, characterID string) (characters.CharacterDetail, error) {
	detail, ok := f.byID[characterID]
	if !ok {
		return characters.CharacterDetail{}, characters.ErrCharacterNotFound
	}
	return detail, nil
}

func (f *fakeCharacterSource) IncrementWins(ctx context.Context, characterID string) error {
	f.wins[characterID]++
	return nil
}

func (f *fakeCharacterSource) IncrementLosses(ctx context.Context, characterID string) error {
	f.losses[characterID]++
	return nil
}

type fakeRecordSink struct {
	saved     []BattleRecordInput
	imageURLs map[string]string
	saveErr   error
}

func (f *fakeRecordSink) Save(ctx context.Context, input BattleRecordInput) (string, error) {
	if f.saveErr != nil {
		return "", f.saveErr
	}
	f.saved = append(f.saved, input)
	return fmt.Sprintf("record-%d", len(f.saved)), nil
}

func (f *fakeRecordSink) UpdateImageURL(ctx context.Context, recordID string, imageURL string) error {
	if f.imageURLs == nil {
		f.imageURLs = map[string]string{}
	}
	f.imageURLs[recordID] = imageURL
	return nil
}

type fakeNarrator struct {
	result ai.BattleNarrative
}

func (f *fakeNarrator) GenerateBattleNarrative(ctx context.Context, characterA characters.CharacterDetail, characterB characters.CharacterDetail) ai.BattleNarrative {
	return f.result
}

type fakePainter struct {
	result ai.ImageResult
	called bool
}

func (f *fakePainter) GenerateBattleImage(ctx context.Context, narrative string, winnerName string) ai.ImageResult {
	f.called = true
	return f.result
}

type fakeObjectStorage struct {
	uploads map[string]string
	err     error
}

func (f *fakeObjectStorage) Upload(ctx context.Context, path string, data []byte, mimeType string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.uploads == nil {
		f.uploads = map[string]string{}
	}
	url := "https://storage.example.com/" + path
	f.uploads[path] = url
	return url, nil
}

func pngDataURI() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("png-bytes"))
}

var (
	testAlice = characters.CharacterDetail{ID: "char-a", UserID: "user-1", CharacterName: "Alice"}
	testBob   = characters.CharacterDetail{ID: "char-b", UserID: "user-2", CharacterName: "Bob"}
)

func TestResolveBattleOpponentWins(t *testing.T) {
	source := newFakeCharacterSource(testAlice, testBob)
	sink := &fakeRecordSink{}
	painter := &fakePainter{result: ai.ImageResult{DataURI: pngDataURI()}}
	storage := &fakeObjectStorage{}
	orchestrator := NewOrchestrator(source, sink,
		&fakeNarrator{result: ai.BattleNarrative{Narrative: "치열한 전투였다.", WinnerName: "Bob"}},
		painter, storage)

	outcome, err := orchestrator.ResolveBattle(context.Background(), "char-a", "char-b", "user-1")
	if err != nil {
		t.Fatalf("resolve battle: %v", err)
	}

	if source.wins["char-b"] != 1 || source.losses["char-a"] != 1 {
		t.Fatalf("expected bob win / alice loss, got wins=%v losses=%v", source.wins, source.losses)
	}
	if len(sink.saved) != 1 {
		t.Fatalf("expected one saved record, got %d", len(sink.saved))
	}
	record := sink.saved[0]
	if record.WinnerID == nil || *record.WinnerID != "char-b" {
		t.Fatalf("expected winner id char-b, got %v", record.WinnerID)
	}
	if record.Narrative == nil || *record.Narrative != "치열한 전투였다." {
		t.Fatalf("unexpected record narrative: %v", record.Narrative)
	}

	expected_path := "public/user-1/record-1.png"
	if _, ok := storage.uploads[expected_path]; !ok {
		t.Fatalf("expected upload at %q, got %v", expected_path, storage.uploads)
	}
	if sink.imageURLs["record-1"] != outcome.ImageURL || outcome.ImageURL == "" {
		t.Fatalf("expected backfilled image url, got record=%q outcome=%q", sink.imageURLs["record-1"], outcome.ImageURL)
	}
	if outcome.WinnerName != "Bob" || outcome.MyCharacterName != "Alice" {
		t.Fatalf("unexpected outcome names: %+v", outcome)
	}
}

func TestResolveBattleWinnerNameMatchesNeither(t *testing.T) {
	source := newFakeCharacterSource(testAlice, testBob)
	sink := &fakeRecordSink{}
	orchestrator := NewOrchestrator(source, sink,
		&fakeNarrator{result: ai.BattleNarrative{Narrative: "이야기", WinnerName: "Charlie"}},
		&fakePainter{}, &fakeObjectStorage{})

	outcome, err := orchestrator.ResolveBattle(context.Background(), "char-a", "char-b", "user-1")
	if err != nil {
		t.Fatalf("resolve battle: %v", err)
	}

	if len(source.wins) != 0 || len(source.losses) != 0 {
		t.Fatalf("expected untouched stats, got wins=%v losses=%v", source.wins, source.losses)
	}
	if sink.saved[0].WinnerID != nil {
		t.Fatalf("expected nil winner id, got %v", sink.saved[0].WinnerID)
	}
	if outcome.WinnerName != "Charlie" {
		t.Fatalf("expected declared winner name preserved, got %q", outcome.WinnerName)
	}
}

func TestResolveBattleNoNarrativeNoWinner(t *testing.T) {
	source := newFakeCharacterSource(testAlice, testBob)
	orchestrator := NewOrchestrator(source, &fakeRecordSink{},
		&fakeNarrator{result: ai.BattleNarrative{}},
		&fakePainter{}, &fakeObjectStorage{})

	_, err := orchestrator.ResolveBattle(context.Background(), "char-a", "char-b", "user-1")
	if !errors.Is(err, ErrBattleGenerationFailed) {
		t.Fatalf("expected ErrBattleGenerationFailed, got %v", err)
	}
}

func TestResolveBattleMissingCharacter(t *testing.T) {
	source := newFakeCharacterSource(testAlice)
	orchestrator := NewOrchestrator(source, &fakeRecordSink{},
		&fakeNarrator{result: ai.BattleNarrative{Narrative: "n", WinnerName: "Alice"}},
		&fakePainter{}, &fakeObjectStorage{})

	_, err := orchestrator.ResolveBattle(context.Background(), "char-a", "char-missing", "user-1")
	if !errors.Is(err, characters.ErrCharacterNotFound) {
		t.Fatalf("expected ErrCharacterNotFound, got %v", err)
	}
}

func TestResolveBattleImageFailureIsNotFatal(t *testing.T) {
	source := newFakeCharacterSource(testAlice, testBob)
	sink := &fakeRecordSink{}
	orchestrator := NewOrchestrator(source, sink,
		&fakeNarrator{result: ai.BattleNarrative{Narrative: "이야기", WinnerName: "Alice"}},
		&fakePainter{result: ai.ImageResult{ErrorMessage: "image api down"}},
		&fakeObjectStorage{})

	outcome, err := orchestrator.ResolveBattle(context.Background(), "char-a", "char-b", "user-1")
	if err != nil {
		t.Fatalf("resolve battle: %v", err)
	}
	if outcome.ImageURL != "" {
		t.Fatalf("expected no image url, got %q", outcome.ImageURL)
	}
	if source.wins["char-a"] != 1 {
		t.Fatalf("expected stats still applied, got %v", source.wins)
	}
}

func TestResolveBattleUploadFailureLeavesRecordImageless(t *testing.T) {
	source := newFakeCharacterSource(testAlice, testBob)
	sink := &fakeRecordSink{}
	orchestrator := NewOrchestrator(source, sink,
		&fakeNarrator{result: ai.BattleNarrative{Narrative: "이야기", WinnerName: "Alice"}},
		&fakePainter{result: ai.ImageResult{DataURI: pngDataURI()}},
		&fakeObjectStorage{err: errors.New("storage down")})

	outcome, err := orchestrator.ResolveBattle(context.Background(), "char-a", "char-b", "user-1")
	if err != nil {
		t.Fatalf("resolve battle: %v", err)
	}
	if outcome.ImageURL != "" {
		t.Fatalf("expected no image url after upload failure, got %q", outcome.ImageURL)
	}
	if len(sink.imageURLs) != 0 {
		t.Fatalf("expected no image backfill, got %v", sink.imageURLs)
	}
}

func TestResolveBattleSkipsImageWithoutNarrative(t *testing.T) {
	source := newFakeCharacterSource(testAlice, testBob)
	painter := &fakePainter{result: ai.ImageResult{DataURI: pngDataURI()}}
	orchestrator := NewOrchestrator(source, &fakeRecordSink{},
		&fakeNarrator{result: ai.BattleNarrative{WinnerName: "Alice"}},
		painter, &fakeObjectStorage{})

	outcome, err := orchestrator.ResolveBattle(context.Background(), "char-a", "char-b", "user-1")
	if err != nil {
		t.Fatalf("resolve battle: %v", err)
	}
	if painter.called {
		t.Fatalf("expected no image generation without a narrative")
	}
	if !strings.Contains(outcome.WinnerName, "Alice") {
		t.Fatalf("expected winner preserved, got %q", outcome.WinnerName)
	}
}

func TestResolveBattleRecordSaveFailureStillReturnsOutcome(t *testing.T) {
	source := newFakeCharacterSource(testAlice, testBob)
	sink := &fakeRecordSink{saveErr: errors.New("insert failed")}
	orchestrator := NewOrchestrator(source, sink,
		&fakeNarrator{result: ai.BattleNarrative{Narrative: "이야기", WinnerName: "Bob"}},
		&fakePainter{result: ai.ImageResult{DataURI: pngDataURI()}},
		&fakeObjectStorage{})

	outcome, err := orchestrator.ResolveBattle(context.Background(), "char-a", "char-b", "user-1")
	if err != nil {
		t.Fatalf("resolve battle: %v", err)
	}
	if outcome.RecordID != "" {
		t.Fatalf("expected empty record id, got %q", outcome.RecordID)
	}
	if outcome.Narrative != "이야기" || outcome.WinnerName != "Bob" {
		t.Fatalf("expected outcome preserved, got %+v", outcome)
	}
}
