package ai

import (
	"context"
	"fmt"
	"log/slog"
)

const (
	IMAGE_MODEL         = "gpt-image-1"
	image_size          = "1024x1024"
	image_quality       = "medium"
	image_background    = "auto"
	image_output_format = "png"
	image_moderation    = "low"
)

// ImageResult is the image adapter's result. DataURI is a self-describing
// embedded image (data:image/<fmt>;base64,<payload>) so the caller can
// persist it verbatim or decode and re-upload it; ErrorMessage explains an
// empty DataURI.
type ImageResult struct {
	DataURI      string `json:"data_uri,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

type imageGenerationRequest struct {
	Model        string `json:"model"`
	Prompt       string `json:"prompt"`
	N            int    `json:"n"`
	Size         string `json:"size"`
	Quality      string `json:"quality"`
	Background   string `json:"background"`
	OutputFormat string `json:"output_format"`
	Moderation   string `json:"moderation"`
}

type imageGenerationResponse struct {
	Created int64 `json:"created"`
	Data    []struct {
		URL           string `json:"url,omitempty"`
		B64JSON       string `json:"b64_json,omitempty"`
		RevisedPrompt string `json:"revised_prompt,omitempty"`
	} `json:"data"`
}

// GenerateBattleImage illustrates a finished battle. This stage is best
// effort by contract: every failure resolves to an ImageResult with an
// explanation, and the battle proceeds without an image.
func (c *Client) GenerateBattleImage(ctx context.Context, narrative string, winnerName string) ImageResult {
	if !c.Configured() {
		slog.Error("OpenAI API key is not configured, skipping image generation")
		return ImageResult{ErrorMessage: "OpenAI API 키가 설정되지 않았습니다. 서버 설정을 확인해주세요."}
	}

	request := imageGenerationRequest{
		Model:        IMAGE_MODEL,
		Prompt:       createImagePrompt(narrative, winnerName),
		N:            1,
		Size:         image_size,
		Quality:      image_quality,
		Background:   image_background,
		OutputFormat: image_output_format,
		Moderation:   image_moderation,
	}

	var response imageGenerationResponse
	if err := c.postJSON(ctx, "/images/generations", request, &response); err != nil {
		slog.Error("Image generation call failed", "error", err)
		return ImageResult{ErrorMessage: fmt.Sprintf("이미지 생성 중 오류가 발생했습니다: %s", err)}
	}

	if len(response.Data) == 0 || response.Data[0].B64JSON == "" {
		revised := ""
		if len(response.Data) > 0 {
			revised = response.Data[0].RevisedPrompt
		}
		slog.Warn("Image generation response carried no base64 payload", "revised_prompt", revised)
		return ImageResult{ErrorMessage: "이미지 base64 데이터를 받지 못했습니다."}
	}

	dataURI := fmt.Sprintf("data:image/%s;base64,%s", image_output_format, response.Data[0].B64JSON)
	slog.Debug("Image generated", "payload_length", len(response.Data[0].B64JSON))
	return ImageResult{DataURI: dataURI}
}

func createImagePrompt(narrative string, winnerName string) string {
	winnerDeclaration := "승패가 명확하지 않은 치열한 전투였습니다."
	if winnerName != "" {
		winnerDeclaration = fmt.Sprintf("승자는 %s입니다.", winnerName)
	}
	return fmt.Sprintf(`다음은 두 전사의 치열한 전투 장면입니다:
%s
%s
이 장면을 묘사하는 역동적이고 인상적인 이미지를 생성해주세요.`, narrative, winnerDeclaration)
}
