package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DefaultGeminiModel はGEMINI_MODEL未指定時に使用するモデル。
const DefaultGeminiModel = "gemini-2.0-flash"

// contentGenerator はgenai.Modelsのうち本パッケージが利用するメソッド。
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// safetySettings はすべての解析リクエストに付与する安全性設定。
var safetySettings = []*genai.SafetySetting{
	{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
	{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
	{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
	{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
}

// GeminiProvider はGoogle Gemini APIを利用するCompletionProvider。
type GeminiProvider struct {
	models contentGenerator
	model  string
}

// NewGeminiProvider はAPIキーを使ってGeminiProviderを生成する。
func NewGeminiProvider(ctx context.Context, apiKey, model string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return newGeminiProvider(client.Models, model), nil
}

func newGeminiProvider(models contentGenerator, model string) *GeminiProvider {
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiProvider{models: models, model: model}
}

// Complete はプロンプトをGeminiに送信し、補完テキストを返す。
func (p *GeminiProvider) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := p.models.GenerateContent(ctx, p.model, genai.Text(prompt), &genai.GenerateContentConfig{
		SafetySettings: safetySettings,
	})
	if err != nil {
		return "", classifyGeminiError(err)
	}

	if resp == nil {
		return "", newError(KindMalformedResponse, 0, errors.New("gemini returned no response"))
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", newError(KindContentBlocked, 0,
			fmt.Errorf("prompt blocked: %s", resp.PromptFeedback.BlockReason))
	}
	if len(resp.Candidates) > 0 && resp.Candidates[0] != nil && isBlockedFinish(resp.Candidates[0].FinishReason) {
		return "", newError(KindContentBlocked, 0,
			fmt.Errorf("candidate blocked: %s", resp.Candidates[0].FinishReason))
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", newError(KindMalformedResponse, 0, errors.New("gemini response contains no text"))
	}
	return text, nil
}

func isBlockedFinish(reason genai.FinishReason) bool {
	switch reason {
	case genai.FinishReasonSafety, genai.FinishReasonBlocklist, genai.FinishReasonProhibitedContent, genai.FinishReasonSPII:
		return true
	default:
		return false
	}
}

// classifyGeminiError はgenaiクライアントのエラーを失敗分類に変換する。
func classifyGeminiError(err error) *AnalysisError {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return newError(kindForStatus(apiErr.Code), apiErr.Code, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return newError(kindForStatus(apiErrPtr.Code), apiErrPtr.Code, err)
	}
	if ae, ok := classifyTransport(err); ok {
		return ae
	}
	return newError(KindProvider, 0, err)
}

// compile-time interface check
var _ CompletionProvider = (*GeminiProvider)(nil)
