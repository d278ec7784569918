package battles

import (
	"backend/lib/ai"
	"backend/lib/characters"
	"backend/lib/storage"
	"context"
	"errors"
	"fmt"
	"log/slog"
)

var (
	ErrBattleGenerationFailed = errors.New("battle generation failed")
)

// BattleOutcome is what the player sees after a resolved battle.
type BattleOutcome struct {
	RecordID        string `json:"record_id"`
	Narrative       string `json:"narrative"`
	WinnerName      string `json:"winner_name,omitempty"`
	ImageURL        string `json:"image_url,omitempty"`
	MyCharacterName string `json:"my_character_name"`
}

type CharacterSource interface {
	Detail(ctx context.Context, characterID string) (characters.CharacterDetail, error)
	IncrementWins(ctx context.Context, characterID string) error
	IncrementLosses(ctx context.Context, characterID string) error
}

type RecordSink interface {
	Save(ctx context.Context, input BattleRecordInput) (string, error)
	UpdateImageURL(ctx context.Context, recordID string, imageURL string) error
}

type NarrativeGenerator interface {
	GenerateBattleNarrative(ctx context.Context, characterA characters.CharacterDetail, characterB characters.CharacterDetail) ai.BattleNarrative
}

type ImageGenerator interface {
	GenerateBattleImage(ctx context.Context, narrative string, winnerName string) ai.ImageResult
}

type ObjectStorage interface {
	Upload(ctx context.Context, path string, data []byte, mimeType string) (string, error)
}

// Orchestrator runs one battle from matched pair to persisted record. The
// steps are strictly sequential and deliberately non-transactional: stat
// updates land before the record is saved, and the image is attached after
// it, each step degrading independently. See ResolveBattle.
type Orchestrator struct {
	characters CharacterSource
	records    RecordSink
	narrator   NarrativeGenerator
	painter    ImageGenerator
	storage    ObjectStorage
}

func NewOrchestrator(
	characterSource CharacterSource,
	recordSink RecordSink,
	narrator NarrativeGenerator,
	painter ImageGenerator,
	objectStorage ObjectStorage,
) *Orchestrator {
	return &Orchestrator{
		characters: characterSource,
		records:    recordSink,
		narrator:   narrator,
		painter:    painter,
		storage:    objectStorage,
	}
}

// ResolveBattle turns a matched pair into a persisted battle record.
//
// Only two things abort the whole run: a failed character lookup and a
// narrative result with neither prose nor winner. Everything downstream of
// the narrative is best effort: an image failure, an upload failure or a
// winner name matching neither combatant all shrink the result instead of
// failing it.
func (o *Orchestrator) ResolveBattle(ctx context.Context, myCharacterID string, opponentID string, userID string) (*BattleOutcome, error) {
	myCharacter, err := o.characters.Detail(ctx, myCharacterID)
	if err != nil {
		return nil, fmt.Errorf("failed to load my character %s: %w", myCharacterID, err)
	}
	opponent, err := o.characters.Detail(ctx, opponentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load opponent character %s: %w", opponentID, err)
	}

	result := o.narrator.GenerateBattleNarrative(ctx, myCharacter, opponent)
	if result.Narrative == "" && result.WinnerName == "" {
		return nil, fmt.Errorf("%w: 승자와 전투 내용을 모두 가져오지 못했습니다", ErrBattleGenerationFailed)
	}

	winnerID := o.applyBattleStats(ctx, result.WinnerName, myCharacter, opponent)

	var imageDataURI string
	if result.Narrative != "" {
		imageResult := o.painter.GenerateBattleImage(ctx, result.Narrative, result.WinnerName)
		if imageResult.DataURI != "" {
			imageDataURI = imageResult.DataURI
		} else {
			slog.Warn("Image generation produced no image", "error", imageResult.ErrorMessage)
		}
	} else {
		slog.Warn("Skipping image generation, narrative is empty")
	}

	recordInput := BattleRecordInput{
		CharacterAID: myCharacter.ID,
		CharacterBID: opponent.ID,
		WinnerID:     winnerID,
	}
	if result.Narrative != "" {
		recordInput.Narrative = &result.Narrative
	}

	recordID, err := o.records.Save(ctx, recordInput)
	if err != nil {
		// The player still gets their outcome; the history entry is lost.
		slog.Error("Failed to save battle record", "error", err)
	}

	imageURL := ""
	if recordID != "" && imageDataURI != "" {
		imageURL = o.attachBattleImage(ctx, recordID, userID, imageDataURI)
	}

	return &BattleOutcome{
		RecordID:        recordID,
		Narrative:       result.Narrative,
		WinnerName:      result.WinnerName,
		ImageURL:        imageURL,
		MyCharacterName: myCharacter.CharacterName,
	}, nil
}

// applyBattleStats resolves the declared winner name against the two
// combatants and bumps their counters. Returns the winner's id, or nil when
// no winner was declared or the name matched neither character (generator
// name drift; logged, not an error).
func (o *Orchestrator) applyBattleStats(ctx context.Context, winnerName string, myCharacter characters.CharacterDetail, opponent characters.CharacterDetail) *string {
	if winnerName == "" {
		slog.Warn("No winner declared, stats unchanged")
		return nil
	}

	var winner, loser *characters.CharacterDetail
	switch winnerName {
	case myCharacter.CharacterName:
		winner, loser = &myCharacter, &opponent
	case opponent.CharacterName:
		winner, loser = &opponent, &myCharacter
	default:
		slog.Warn("Winner name matches neither combatant, stats unchanged",
			"winner_name", winnerName,
			"character_a", myCharacter.CharacterName,
			"character_b", opponent.CharacterName,
		)
		return nil
	}

	if err := o.characters.IncrementWins(ctx, winner.ID); err != nil {
		slog.Error("Failed to record win", "character_id", winner.ID, "error", err)
	}
	if err := o.characters.IncrementLosses(ctx, loser.ID); err != nil {
		slog.Error("Failed to record loss", "character_id", loser.ID, "error", err)
	}
	slog.Info("Battle stats recorded", "winner", winner.CharacterName, "loser", loser.CharacterName)

	return &winner.ID
}

// attachBattleImage decodes the generated image, uploads it under
// public/<user>/<record>.<ext> and backfills the record's image url.
// Returns the public URL, or "" when any stage failed; the record simply
// stays imageless.
func (o *Orchestrator) attachBattleImage(ctx context.Context, recordID string, userID string, dataURI string) string {
	mimeType, imageBytes, err := storage.ParseImageDataURI(dataURI)
	if err != nil {
		slog.Error("Failed to decode generated image", "record_id", recordID, "error", err)
		return ""
	}

	uploadPath := fmt.Sprintf("public/%s/%s.%s", userID, recordID, storage.FileExtension(mimeType))
	publicURL, err := o.storage.Upload(ctx, uploadPath, imageBytes, mimeType)
	if err != nil {
		slog.Error("Failed to upload battle image", "record_id", recordID, "path", uploadPath, "error", err)
		return ""
	}

	if err := o.records.UpdateImageURL(ctx, recordID, publicURL); err != nil {
		slog.Error("Failed to backfill record image url", "record_id", recordID, "error", err)
		return ""
	}

	slog.Info("Battle image attached", "record_id", recordID, "url", publicURL)
	return publicURL
}
