package detection

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"milguard_backend/internal/config"
	"milguard_backend/internal/model"
)

const (
	OpenAIName           = "openai"
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAIModel   = "gpt-4o"
)

const openAISystemPrompt = `You are an AI-content forensics assistant. Decide whether the user's content was generated by an AI model.
Answer with a JSON object only: {"confidence": number between 0 and 1 (probability the content is AI-generated), "isAiGenerated": boolean, "reasoning": short string, "indicators": array of short strings naming the signals you saw}.`

// OpenAI asks a chat completion model for a structured verdict on text or images.
type OpenAI struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

func NewOpenAI(cfg config.ProviderConfig) *OpenAI {
	p := &OpenAI{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		client:  newHTTPClient(),
	}
	if p.baseURL == "" {
		p.baseURL = defaultOpenAIBaseURL
	}
	if p.model == "" {
		p.model = defaultOpenAIModel
	}
	return p
}

func (p *OpenAI) Name() string { return OpenAIName }

func (p *OpenAI) Supports(t model.ContentType) bool {
	return t == model.ContentText || t == model.ContentImage
}

type openAIPart struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *openAIImageURL `json:"image_url,omitempty"`
}

type openAIImageURL struct {
	URL string `json:"url"`
}

type openAIMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type openAIRequest struct {
	Model          string            `json:"model"`
	Messages       []openAIMessage   `json:"messages"`
	ResponseFormat map[string]string `json:"response_format"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type openAIVerdict struct {
	Confidence    float64  `json:"confidence"`
	IsAIGenerated bool     `json:"isAiGenerated"`
	Reasoning     string   `json:"reasoning"`
	Indicators    []string `json:"indicators"`
}

func (p *OpenAI) Detect(ctx context.Context, content Content) (model.ProviderResult, error) {
	var userContent interface{}
	switch content.Type {
	case model.ContentText:
		userContent = "Analyze this text:\n\n" + content.Text
	case model.ContentImage:
		dataURL := fmt.Sprintf("data:%s;base64,%s", content.MimeType, base64.StdEncoding.EncodeToString(content.Data))
		userContent = []openAIPart{
			{Type: "text", Text: "Analyze this image for signs of AI generation or manipulation."},
			{Type: "image_url", ImageURL: &openAIImageURL{URL: dataURL}},
		}
	default:
		return model.ProviderResult{}, &ProviderError{Provider: OpenAIName, Err: fmt.Errorf("unsupported content type %q", content.Type)}
	}

	body, err := jsonBody(openAIRequest{
		Model: p.model,
		Messages: []openAIMessage{
			{Role: "system", Content: openAISystemPrompt},
			{Role: "user", Content: userContent},
		},
		ResponseFormat: map[string]string{"type": "json_object"},
	})
	if err != nil {
		return model.ProviderResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", body)
	if err != nil {
		return model.ProviderResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	var resp openAIResponse
	if err := doJSON(p.client, OpenAIName, req, &resp); err != nil {
		return model.ProviderResult{}, err
	}
	if len(resp.Choices) == 0 {
		return model.ProviderResult{}, &ProviderError{Provider: OpenAIName, Err: errors.New("empty choices")}
	}

	var verdict openAIVerdict
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &verdict); err != nil {
		return model.ProviderResult{}, &ProviderError{Provider: OpenAIName, Err: fmt.Errorf("malformed verdict: %w", err)}
	}

	return model.ProviderResult{
		Confidence:    verdict.Confidence,
		IsAIGenerated: verdict.IsAIGenerated,
		Reasoning:     verdict.Reasoning,
		Indicators:    verdict.Indicators,
		Metadata:      map[string]interface{}{"model": p.model},
	}, nil
}
