package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
)

// DefaultOpenAIModel はOPENAI_MODEL未指定時に使用するモデル。
const DefaultOpenAIModel = "gpt-4o-mini"

// incompleteContentFilter は安全性フィルタで応答が打ち切られた場合の理由。
const incompleteContentFilter = "content_filter"

// responsesCreator はopenai.Client.Responsesのうち本パッケージが利用するメソッド。
type responsesCreator interface {
	New(ctx context.Context, params responses.ResponseNewParams, opts ...option.RequestOption) (*responses.Response, error)
}

// OpenAIProvider はOpenAI Responses APIを利用するCompletionProvider。
type OpenAIProvider struct {
	responses responsesCreator
	model     string
}

// NewOpenAIProvider はAPIキーを使ってOpenAIProviderを生成する。
func NewOpenAIProvider(apiKey, model string) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return newOpenAIProvider(&client.Responses, model), nil
}

func newOpenAIProvider(r responsesCreator, model string) *OpenAIProvider {
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAIProvider{responses: r, model: model}
}

// Complete はプロンプトをOpenAIに送信し、補完テキストを返す。
func (p *OpenAIProvider) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := p.responses.New(ctx, responses.ResponseNewParams{
		Model: p.model,
		Input: responses.ResponseNewParamsInputUnion{
			OfString: openai.String(prompt),
		},
	})
	if err != nil {
		return "", classifyOpenAIError(err)
	}

	if resp == nil {
		return "", newError(KindMalformedResponse, 0, errors.New("openai returned no response"))
	}
	if string(resp.IncompleteDetails.Reason) == incompleteContentFilter {
		return "", newError(KindContentBlocked, 0, errors.New("response stopped by content filter"))
	}

	text := resp.OutputText()
	if strings.TrimSpace(text) == "" {
		return "", newError(KindMalformedResponse, 0, errors.New("openai response contains no text"))
	}
	return text, nil
}

// classifyOpenAIError はopenaiクライアントのエラーを失敗分類に変換する。
func classifyOpenAIError(err error) *AnalysisError {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) && apiErr != nil {
		return newError(kindForStatus(apiErr.StatusCode), apiErr.StatusCode, err)
	}
	if ae, ok := classifyTransport(err); ok {
		return ae
	}
	return newError(KindProvider, 0, err)
}

// compile-time interface check
var _ CompletionProvider = (*OpenAIProvider)(nil)
