package ai

import (
	"backend/lib/characters"
	"context"
	"fmt"
	"log/slog"
	"strings"
)

const (
	CHAT_MODEL = "gpt-4o-mini-2024-07-18"

	// WinnerMarker is the fixed label the generator is instructed to end
	// its output with, followed by the winner's name.
	WinnerMarker = "승자: "
)

// BattleNarrative is the narrative adapter's result. WinnerName is empty
// when no winner could be declared; Narrative carries a human-readable
// explanation instead of prose when the call itself failed.
type BattleNarrative struct {
	Narrative  string `json:"narrative"`
	WinnerName string `json:"winner_name"`
}

// GenerateBattleNarrative asks the text model to narrate a fight between the
// two characters and declare a winner. Failures are folded into the result,
// never raised: a missing API key, a transport error, or an empty response
// all produce an explanatory narrative with no winner.
func (c *Client) GenerateBattleNarrative(ctx context.Context, characterA characters.CharacterDetail, characterB characters.CharacterDetail) BattleNarrative {
	if !c.Configured() {
		slog.Error("OpenAI API key is not configured, skipping narrative generation")
		return BattleNarrative{Narrative: "OpenAI API 키가 설정되지 않았습니다. 서버 설정을 확인해주세요."}
	}

	prompt := createBattlePrompt(characterA, characterB)
	slog.Debug("Requesting battle narrative", "model", CHAT_MODEL, "prompt_length", len(prompt))

	responseText, err := c.chatCompletion(ctx, CHAT_MODEL, prompt)
	if err != nil {
		slog.Error("Narrative generation call failed", "error", err)
		return BattleNarrative{Narrative: fmt.Sprintf("전투 내용 생성 중 오류가 발생했습니다: %s", err)}
	}

	return ParseBattleNarrative(responseText)
}

func createBattlePrompt(characterA characters.CharacterDetail, characterB characters.CharacterDetail) string {
	characterADetails := fmt.Sprintf("이름: %s, 설명: %s", characterA.CharacterName, characterA.Description)
	characterBDetails := fmt.Sprintf("이름: %s, 설명: %s", characterB.CharacterName, characterB.Description)

	return fmt.Sprintf(`두 명의 용감한 전사가 숙명의 대결을 펼칩니다!

전사 A: %s
전사 B: %s

이 두 전사의 치열한 전투 과정을 상세하고 흥미진진하게 묘사해주세요.
전투는 여러 턴에 걸쳐 진행될 수 있으며, 각 전사의 기술이나 특징이 드러나도록 해주세요.
묘사는 한국어로 최소 300자 이상으로 작성해주세요.
마지막에는 반드시 명확하게 승자를 선언해야 합니다.
승자 선언은 다음 형식으로 끝나야 합니다: "승자: [전사 A의 이름 또는 전사 B의 이름]"
다른 말은 포함하지 말고 오직 "승자: [이름]" 형식으로만 끝나야 합니다.

예시:
... (300자 이상의 전투 과정 묘사) ...
승자: %s

또는

... (300자 이상의 전투 과정 묘사) ...
승자: %s`,
		characterADetails, characterBDetails,
		characterA.CharacterName, characterB.CharacterName)
}

// ParseBattleNarrative splits a completion into narrative and declared
// winner. The marker is searched from the end because the prose itself may
// mention the marker words; only the final declaration counts. When the
// marker is absent the whole text is narrative and no winner is declared.
func ParseBattleNarrative(responseText string) BattleNarrative {
	if strings.TrimSpace(responseText) == "" {
		slog.Warn("Narrative response was empty")
		return BattleNarrative{Narrative: "전투 내용을 생성하지 못했습니다. (API 응답 없음)"}
	}

	markerIndex := strings.LastIndex(responseText, WinnerMarker)
	if markerIndex == -1 {
		slog.Warn("No winner declaration found in narrative response")
		return BattleNarrative{Narrative: responseText}
	}

	narrative := strings.TrimSpace(responseText[:markerIndex])
	remainder := strings.TrimSpace(responseText[markerIndex+len(WinnerMarker):])

	// Only the first line after the marker is the name; anything beyond it
	// is generator chatter.
	winnerName := remainder
	if newline := strings.IndexByte(remainder, '\n'); newline != -1 {
		winnerName = strings.TrimSpace(remainder[:newline])
	}

	if winnerName == "" {
		slog.Warn("Winner name was empty after parsing")
		return BattleNarrative{Narrative: narrative}
	}

	return BattleNarrative{Narrative: narrative, WinnerName: winnerName}
}
