package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"milguard_backend/internal/config"
	"milguard_backend/internal/util"
)

type ReverseImageResult struct {
	ImageURL string            `json:"imageUrl"`
	Engines  map[string]string `json:"engines"`
}

type ClaimReview struct {
	Publisher     string `json:"publisher"`
	Site          string `json:"site,omitempty"`
	URL           string `json:"url"`
	Title         string `json:"title,omitempty"`
	TextualRating string `json:"textualRating"`
	ReviewDate    string `json:"reviewDate,omitempty"`
}

type FactCheckClaim struct {
	Text      string        `json:"text"`
	Claimant  string        `json:"claimant,omitempty"`
	ClaimDate string        `json:"claimDate,omitempty"`
	Reviews   []ClaimReview `json:"reviews"`
}

type FactCheckResult struct {
	Query  string           `json:"query"`
	Claims []FactCheckClaim `json:"claims"`
}

type SourceScore struct {
	URL     string   `json:"url"`
	Domain  string   `json:"domain"`
	Score   float64  `json:"score"`
	Rating  string   `json:"rating"`
	Signals []string `json:"signals"`
}

// VerificationService holds the helper tools around the detector: reverse
// image search links, a fact-check proxy and a domain credibility heuristic.
type VerificationService struct {
	Cfg    config.VerificationConfig
	client *http.Client
}

func NewVerificationService(cfg config.VerificationConfig) *VerificationService {
	return &VerificationService{
		Cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func parseWebURL(field, raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, util.NewValidationError(field, "must be an absolute http(s) URL")
	}
	return u, nil
}

// ReverseImageLinks builds search URLs only; no outbound call is made.
func (s *VerificationService) ReverseImageLinks(imageURL string) (*ReverseImageResult, error) {
	u, err := parseWebURL("imageUrl", imageURL)
	if err != nil {
		return nil, err
	}
	q := url.QueryEscape(u.String())
	return &ReverseImageResult{
		ImageURL: u.String(),
		Engines: map[string]string{
			"google": "https://lens.google.com/uploadbyurl?url=" + q,
			"bing":   "https://www.bing.com/images/search?view=detailv2&iss=sbi&q=imgurl:" + q,
			"tineye": "https://tineye.com/search?url=" + q,
			"yandex": "https://yandex.com/images/search?rpt=imageview&url=" + q,
		},
	}, nil
}

type factCheckResponse struct {
	Claims []struct {
		Text        string `json:"text"`
		Claimant    string `json:"claimant"`
		ClaimDate   string `json:"claimDate"`
		ClaimReview []struct {
			Publisher struct {
				Name string `json:"name"`
				Site string `json:"site"`
			} `json:"publisher"`
			URL           string `json:"url"`
			Title         string `json:"title"`
			ReviewDate    string `json:"reviewDate"`
			TextualRating string `json:"textualRating"`
		} `json:"claimReview"`
	} `json:"claims"`
}

// FactCheck proxies the Google Fact Check Tools claim search.
func (s *VerificationService) FactCheck(ctx context.Context, query string) (*FactCheckResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, util.NewValidationError("query", "must not be empty")
	}
	if s.Cfg.FactCheckAPIKey == "" {
		return nil, fmt.Errorf("fact check: %w", util.ErrProviderUnavailable)
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("key", s.Cfg.FactCheckAPIKey)
	if s.Cfg.Language != "" {
		params.Set("languageCode", s.Cfg.Language)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.Cfg.FactCheckURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fact check request failed: %v", util.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: fact check returned status %d: %s", util.ErrProviderUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var raw factCheckResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: fact check payload: %v", util.ErrProviderUnavailable, err)
	}

	out := &FactCheckResult{Query: query, Claims: make([]FactCheckClaim, 0, len(raw.Claims))}
	for _, c := range raw.Claims {
		claim := FactCheckClaim{Text: c.Text, Claimant: c.Claimant, ClaimDate: c.ClaimDate, Reviews: []ClaimReview{}}
		for _, r := range c.ClaimReview {
			claim.Reviews = append(claim.Reviews, ClaimReview{
				Publisher:     r.Publisher.Name,
				Site:          r.Publisher.Site,
				URL:           r.URL,
				Title:         r.Title,
				TextualRating: r.TextualRating,
				ReviewDate:    r.ReviewDate,
			})
		}
		out.Claims = append(out.Claims, claim)
	}
	return out, nil
}

var institutionalTLDs = []string{".gov", ".edu", ".mil", ".int"}

func matchesDomain(host, domain string) bool {
	domain = strings.ToLower(strings.TrimPrefix(domain, "."))
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// ScoreSource rates a URL's publisher from configured domain lists, the
// top-level domain and the transport.
func (s *VerificationService) ScoreSource(rawURL string) (*SourceScore, error) {
	u, err := parseWebURL("url", rawURL)
	if err != nil {
		return nil, err
	}
	host := strings.ToLower(strings.TrimPrefix(u.Hostname(), "www."))

	score := 0.5
	signals := []string{}
	if u.Scheme == "https" {
		score += 0.1
		signals = append(signals, "served over HTTPS")
	} else {
		score -= 0.1
		signals = append(signals, "not served over HTTPS")
	}
	for _, tld := range institutionalTLDs {
		if strings.HasSuffix(host, tld) {
			score += 0.2
			signals = append(signals, "institutional domain ("+tld+")")
			break
		}
	}
	for _, d := range s.Cfg.TrustedDomains {
		if matchesDomain(host, d) {
			score += 0.35
			signals = append(signals, "listed as an established publisher")
			break
		}
	}
	for _, d := range s.Cfg.UntrustedDomains {
		if matchesDomain(host, d) {
			score -= 0.4
			signals = append(signals, "listed as a known unreliable source")
			break
		}
	}

	score = math.Max(0, math.Min(1, score))
	score = math.Round(score*100) / 100
	rating := "low"
	switch {
	case score >= 0.7:
		rating = "high"
	case score >= 0.4:
		rating = "medium"
	}
	return &SourceScore{URL: u.String(), Domain: host, Score: score, Rating: rating, Signals: signals}, nil
}
