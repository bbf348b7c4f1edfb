package detection

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"milguard_backend/internal/config"
	"milguard_backend/internal/model"
)

const (
	GPTZeroName           = "gptZero"
	defaultGPTZeroBaseURL = "https://api.gptzero.me"
)

// GPTZero scores text only.
type GPTZero struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewGPTZero(cfg config.ProviderConfig) *GPTZero {
	p := &GPTZero{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  newHTTPClient(),
	}
	if p.baseURL == "" {
		p.baseURL = defaultGPTZeroBaseURL
	}
	return p
}

func (p *GPTZero) Name() string { return GPTZeroName }

func (p *GPTZero) Supports(t model.ContentType) bool {
	return t == model.ContentText
}

type gptZeroResponse struct {
	Documents []struct {
		CompletelyGeneratedProb float64 `json:"completely_generated_prob"`
		AverageGeneratedProb    float64 `json:"average_generated_prob"`
		PredictedClass          string  `json:"predicted_class"`
		ConfidenceCategory      string  `json:"confidence_category"`
		Sentences               []struct {
			Sentence       string  `json:"sentence"`
			GeneratedProb  float64 `json:"generated_prob"`
			HighlightForAI bool    `json:"highlight_sentence_for_ai"`
		} `json:"sentences"`
	} `json:"documents"`
}

func (p *GPTZero) Detect(ctx context.Context, content Content) (model.ProviderResult, error) {
	if content.Type != model.ContentText {
		return model.ProviderResult{}, &ProviderError{Provider: GPTZeroName, Err: fmt.Errorf("unsupported content type %q", content.Type)}
	}

	body, err := jsonBody(map[string]string{"document": content.Text})
	if err != nil {
		return model.ProviderResult{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v2/predict/text", body)
	if err != nil {
		return model.ProviderResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-api-key", p.apiKey)

	var resp gptZeroResponse
	if err := doJSON(p.client, GPTZeroName, req, &resp); err != nil {
		return model.ProviderResult{}, err
	}
	if len(resp.Documents) == 0 {
		return model.ProviderResult{}, &ProviderError{Provider: GPTZeroName, Err: errors.New("no documents in response")}
	}

	doc := resp.Documents[0]
	confidence := doc.CompletelyGeneratedProb
	if confidence == 0 {
		confidence = doc.AverageGeneratedProb
	}

	var indicators []string
	flagged := 0
	for _, s := range doc.Sentences {
		if s.HighlightForAI {
			flagged++
		}
	}
	if flagged > 0 {
		indicators = append(indicators, fmt.Sprintf("%d of %d sentences flagged as AI-written", flagged, len(doc.Sentences)))
	}

	reasoning := "GPTZero classified the text"
	if doc.PredictedClass != "" {
		reasoning = fmt.Sprintf("GPTZero classified the text as %s", doc.PredictedClass)
	}

	return model.ProviderResult{
		Confidence:    confidence,
		IsAIGenerated: doc.PredictedClass == "ai" || (doc.PredictedClass == "" && confidence > AIThreshold),
		Reasoning:     reasoning,
		Indicators:    indicators,
		Metadata: map[string]interface{}{
			"predictedClass":     doc.PredictedClass,
			"confidenceCategory": doc.ConfidenceCategory,
		},
	}, nil
}
