package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"milguard_backend/internal/config"
	"milguard_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreSource(t *testing.T) {
	svc := NewVerificationService(config.VerificationConfig{
		TrustedDomains:   []string{"reuters.com"},
		UntrustedDomains: []string{"theonion.com"},
	})

	cases := []struct {
		url    string
		score  float64
		rating string
	}{
		{"https://www.reuters.com/world/article", 0.95, "high"},
		{"http://theonion.com/story", 0, "low"},
		{"https://data.example.gov/report", 0.8, "high"},
		{"http://example.com", 0.4, "medium"},
	}
	for _, tc := range cases {
		got, err := svc.ScoreSource(tc.url)
		require.NoError(t, err, tc.url)
		assert.InDelta(t, tc.score, got.Score, 1e-9, tc.url)
		assert.Equal(t, tc.rating, got.Rating, tc.url)
	}

	_, err := svc.ScoreSource("ftp://files.example.com")
	var verr *util.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestReverseImageLinks(t *testing.T) {
	svc := NewVerificationService(config.VerificationConfig{})
	res, err := svc.ReverseImageLinks("https://cdn.example.com/img.jpg")
	require.NoError(t, err)
	assert.Len(t, res.Engines, 4)
	assert.Contains(t, res.Engines["tineye"], "https%3A%2F%2Fcdn.example.com%2Fimg.jpg")
}

func TestFactCheckWithoutKey(t *testing.T) {
	svc := NewVerificationService(config.VerificationConfig{FactCheckURL: "http://127.0.0.1:1"})
	_, err := svc.FactCheck(context.Background(), "moon landing")
	assert.ErrorIs(t, err, util.ErrProviderUnavailable)
}

func TestFactCheckProxiesClaims(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "moon landing", r.URL.Query().Get("query"))
		assert.Equal(t, "secret", r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"claims":[{"text":"The moon landing was staged","claimant":"viral post",
			"claimReview":[{"publisher":{"name":"Reuters","site":"reuters.com"},"url":"https://reuters.com/fc","textualRating":"False"}]}]}`))
	}))
	defer srv.Close()

	svc := NewVerificationService(config.VerificationConfig{FactCheckURL: srv.URL, FactCheckAPIKey: "secret"})
	res, err := svc.FactCheck(context.Background(), "moon landing")
	require.NoError(t, err)
	require.Len(t, res.Claims, 1)
	require.Len(t, res.Claims[0].Reviews, 1)
	assert.Equal(t, "Reuters", res.Claims[0].Reviews[0].Publisher)
	assert.Equal(t, "False", res.Claims[0].Reviews[0].TextualRating)
}
