package ai

import (
	"backend/lib/characters"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseBattleNarrative(t *testing.T) {
	tests := []struct {
		name       string
		response   string
		narrative  string
		winnerName string
	}{
		{
			name:       "winner declared",
			response:   "치열한 전투가 벌어졌다.\n승자: Alice",
			narrative:  "치열한 전투가 벌어졌다.",
			winnerName: "Alice",
		},
		{
			name:       "marker appears mid prose, last one wins",
			response:   "Alice의 승자는 누구일까 묻는 함성이 울렸다.\n격돌이 이어졌다.\n승자: Bob",
			narrative:  "Alice의 승자는 누구일까 묻는 함성이 울렸다.\n격돌이 이어졌다.",
			winnerName: "Bob",
		},
		{
			name:       "chatter after winner line ignored",
			response:   "전투 묘사.\n승자: Alice\n정말 멋진 싸움이었습니다!",
			narrative:  "전투 묘사.",
			winnerName: "Alice",
		},
		{
			name:       "no marker means no winner",
			response:   "둘은 끝내 승부를 가리지 못했다.",
			narrative:  "둘은 끝내 승부를 가리지 못했다.",
			winnerName: "",
		},
		{
			name:       "marker with empty name",
			response:   "전투 묘사.\n승자: ",
			narrative:  "전투 묘사.",
			winnerName: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseBattleNarrative(tt.response)
			if result.Narrative != tt.narrative {
				t.Fatalf("narrative mismatch:\n got %q\nwant %q", result.Narrative, tt.narrative)
			}
			if result.WinnerName != tt.winnerName {
				t.Fatalf("winner mismatch: got %q, want %q", result.WinnerName, tt.winnerName)
			}
		})
	}
}

func TestParseBattleNarrativeEmptyResponse(t *testing.T) {
	result := ParseBattleNarrative("   ")
	if result.WinnerName != "" {
		t.Fatalf("expected no winner, got %q", result.WinnerName)
	}
	if result.Narrative == "" {
		t.Fatalf("expected explanatory narrative for empty response")
	}
}

func TestGenerateBattleNarrativeUnconfigured(t *testing.T) {
	client := NewClient(Config{})

	result := client.GenerateBattleNarrative(context.Background(),
		characters.CharacterDetail{CharacterName: "Alice"},
		characters.CharacterDetail{CharacterName: "Bob"})

	if result.WinnerName != "" {
		t.Fatalf("expected no winner without an api key, got %q", result.WinnerName)
	}
	if result.Narrative == "" {
		t.Fatalf("expected explanatory narrative without an api key")
	}
}

func TestGenerateBattleNarrativeRoundTrip(t *testing.T) {
	var got chatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Fatalf("unexpected auth header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "전투 묘사.\n승자: Bob"}},
			},
		})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test-key", BaseURL: server.URL})

	result := client.GenerateBattleNarrative(context.Background(),
		characters.CharacterDetail{CharacterName: "Alice", Description: "검사"},
		characters.CharacterDetail{CharacterName: "Bob", Description: "마법사"})

	if result.WinnerName != "Bob" {
		t.Fatalf("expected winner Bob, got %q", result.WinnerName)
	}
	if result.Narrative != "전투 묘사." {
		t.Fatalf("unexpected narrative %q", result.Narrative)
	}
	if got.Model != CHAT_MODEL {
		t.Fatalf("expected model %q, got %q", CHAT_MODEL, got.Model)
	}
	if len(got.Messages) != 1 || !strings.Contains(got.Messages[0].Content, "Alice") {
		t.Fatalf("expected prompt mentioning both characters, got %+v", got.Messages)
	}
}

func TestGenerateBattleNarrativeApiError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "rate limited"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test-key", BaseURL: server.URL})

	result := client.GenerateBattleNarrative(context.Background(),
		characters.CharacterDetail{CharacterName: "Alice"},
		characters.CharacterDetail{CharacterName: "Bob"})

	if result.WinnerName != "" {
		t.Fatalf("expected no winner on api error, got %q", result.WinnerName)
	}
	if result.Narrative == "" {
		t.Fatalf("expected explanatory narrative on api error")
	}
}
