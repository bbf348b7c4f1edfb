package detection

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"sort"
	"strings"

	"milguard_backend/internal/config"
	"milguard_backend/internal/model"
)

const (
	AIOrNotName           = "aiOrNot"
	defaultAIOrNotBaseURL = "https://api.aiornot.com"
)

// AIOrNot classifies images and audio recordings.
type AIOrNot struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewAIOrNot(cfg config.ProviderConfig) *AIOrNot {
	p := &AIOrNot{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  newHTTPClient(),
	}
	if p.baseURL == "" {
		p.baseURL = defaultAIOrNotBaseURL
	}
	return p
}

func (p *AIOrNot) Name() string { return AIOrNotName }

func (p *AIOrNot) Supports(t model.ContentType) bool {
	return t == model.ContentImage || t == model.ContentAudio
}

type aiOrNotScore struct {
	IsDetected bool    `json:"is_detected"`
	Confidence float64 `json:"confidence"`
}

type aiOrNotResponse struct {
	ID     string `json:"id"`
	Report struct {
		Verdict   string       `json:"verdict"`
		AI        aiOrNotScore `json:"ai"`
		Human     aiOrNotScore `json:"human"`
		Generator map[string]struct {
			IsDetected bool    `json:"is_detected"`
			Confidence float64 `json:"confidence"`
		} `json:"generator"`
	} `json:"report"`
}

func (p *AIOrNot) Detect(ctx context.Context, content Content) (model.ProviderResult, error) {
	var endpoint string
	switch content.Type {
	case model.ContentImage:
		endpoint = "/v1/reports/image"
	case model.ContentAudio:
		endpoint = "/v1/reports/audio"
	default:
		return model.ProviderResult{}, &ProviderError{Provider: AIOrNotName, Err: fmt.Errorf("unsupported content type %q", content.Type)}
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	name := content.FileName
	if name == "" {
		name = "upload"
	}
	part, err := w.CreateFormFile("object", name)
	if err != nil {
		return model.ProviderResult{}, err
	}
	if _, err := part.Write(content.Data); err != nil {
		return model.ProviderResult{}, err
	}
	if err := w.Close(); err != nil {
		return model.ProviderResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+endpoint, &buf)
	if err != nil {
		return model.ProviderResult{}, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	var resp aiOrNotResponse
	if err := doJSON(p.client, AIOrNotName, req, &resp); err != nil {
		return model.ProviderResult{}, err
	}

	confidence := resp.Report.AI.Confidence
	if confidence == 0 && resp.Report.Human.Confidence > 0 {
		confidence = 1 - resp.Report.Human.Confidence
	}

	var indicators []string
	for gen, score := range resp.Report.Generator {
		if score.IsDetected {
			indicators = append(indicators, "matches "+gen+" generator fingerprint")
		}
	}
	sort.Strings(indicators)

	return model.ProviderResult{
		Confidence:    confidence,
		IsAIGenerated: resp.Report.Verdict == "ai" || resp.Report.AI.IsDetected,
		Reasoning:     fmt.Sprintf("AI or Not verdict: %s", resp.Report.Verdict),
		Indicators:    indicators,
		Metadata:      map[string]interface{}{"reportId": resp.ID, "verdict": resp.Report.Verdict},
	}, nil
}
