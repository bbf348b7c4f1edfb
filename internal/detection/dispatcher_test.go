package detection

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"milguard_backend/internal/config"
	"milguard_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	name     string
	types    []model.ContentType
	result   model.ProviderResult
	err      error
	delay    time.Duration
	ignoreCt bool
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Supports(t model.ContentType) bool {
	for _, s := range p.types {
		if s == t {
			return true
		}
	}
	return false
}

func (p *stubProvider) Detect(ctx context.Context, _ Content) (model.ProviderResult, error) {
	if p.delay > 0 {
		if p.ignoreCt {
			time.Sleep(p.delay)
		} else {
			select {
			case <-time.After(p.delay):
			case <-ctx.Done():
				return model.ProviderResult{}, ctx.Err()
			}
		}
	}
	return p.result, p.err
}

func textProvider(name string, confidence float64) *stubProvider {
	return &stubProvider{
		name:   name,
		types:  []model.ContentType{model.ContentText},
		result: model.ProviderResult{Confidence: confidence, IsAIGenerated: confidence > 0.5},
	}
}

func TestDispatcherCollectsAllResults(t *testing.T) {
	d := NewDispatcher(time.Second, textProvider("openai", 0.9), textProvider("gptZero", 0.3))

	out, err := d.Detect(context.Background(), Content{Type: model.ContentText, Text: "hello"})
	require.NoError(t, err)
	assert.Len(t, out.Results, 2)
	assert.Equal(t, []string{"gptZero", "openai"}, out.Queried)
	assert.Empty(t, out.Failed)
}

func TestDispatcherSkipsUnsupportedProviders(t *testing.T) {
	image := &stubProvider{name: "aiOrNot", types: []model.ContentType{model.ContentImage}}
	d := NewDispatcher(time.Second, textProvider("openai", 0.7), image)

	out, err := d.Detect(context.Background(), Content{Type: model.ContentText, Text: "hello"})
	require.NoError(t, err)
	assert.Equal(t, []string{"openai"}, out.Queried)
	assert.NotContains(t, out.Results, "aiOrNot")
}

func TestDispatcherDropsFailedProvider(t *testing.T) {
	broken := &stubProvider{
		name:  "gptZero",
		types: []model.ContentType{model.ContentText},
		err:   &ProviderError{Provider: "gptZero", StatusCode: http.StatusInternalServerError, Err: errors.New("boom")},
	}
	d := NewDispatcher(time.Second, textProvider("openai", 0.8), broken)

	out, err := d.Detect(context.Background(), Content{Type: model.ContentText, Text: "hello"})
	require.NoError(t, err)
	assert.Contains(t, out.Results, "openai")
	assert.NotContains(t, out.Results, "gptZero")
	assert.Equal(t, []string{"gptZero"}, out.Failed)
}

func TestDispatcherTimesOutSlowProvider(t *testing.T) {
	slow := &stubProvider{
		name:     "gptZero",
		types:    []model.ContentType{model.ContentText},
		delay:    2 * time.Second,
		ignoreCt: true,
	}
	d := NewDispatcher(50*time.Millisecond, textProvider("openai", 0.8), slow)

	start := time.Now()
	out, err := d.Detect(context.Background(), Content{Type: model.ContentText, Text: "hello"})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, []string{"gptZero"}, out.Failed)
	assert.Len(t, out.Results, 1)
}

func TestDispatcherAllFailed(t *testing.T) {
	broken := &stubProvider{name: "openai", types: []model.ContentType{model.ContentText}, err: errors.New("down")}
	d := NewDispatcher(time.Second, broken)

	out, err := d.Detect(context.Background(), Content{Type: model.ContentText, Text: "hello"})
	assert.ErrorIs(t, err, ErrNoVerdict)
	require.NotNil(t, out)
	assert.Equal(t, []string{"openai"}, out.Failed)
}

func TestDispatcherNoEligibleProvider(t *testing.T) {
	d := NewDispatcher(time.Second, textProvider("openai", 0.5))
	_, err := d.Detect(context.Background(), Content{Type: model.ContentAudio, Data: []byte{1}})
	assert.ErrorIs(t, err, ErrNoVerdict)
}

func TestDispatcherTimeoutDefaults(t *testing.T) {
	d := NewDispatcher(0)
	assert.Equal(t, defaultTimeout, d.Timeout())
	d.SetTimeout(3 * time.Second)
	assert.Equal(t, 3*time.Second, d.Timeout())
}

func TestDispatcherFromConfigNeedsKeys(t *testing.T) {
	d := NewDispatcherFromConfig(config.DetectionConfig{
		Providers: config.ProvidersConfig{
			OpenAI:  config.ProviderConfig{Enabled: true, APIKey: "sk-test"},
			GPTZero: config.ProviderConfig{Enabled: true},
			AIOrNot: config.ProviderConfig{Enabled: false, APIKey: "key"},
		},
	})
	assert.Equal(t, []string{OpenAIName}, d.ProviderNames())
}

func TestGPTZeroParsesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/predict/text", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"documents":[{"completely_generated_prob":0.92,"predicted_class":"ai",
			"sentences":[{"sentence":"a","highlight_sentence_for_ai":true},{"sentence":"b"}]}]}`))
	}))
	defer srv.Close()

	p := NewGPTZero(config.ProviderConfig{BaseURL: srv.URL, APIKey: "test-key"})
	res, err := p.Detect(context.Background(), Content{Type: model.ContentText, Text: "some text"})
	require.NoError(t, err)
	assert.InDelta(t, 0.92, res.Confidence, 1e-9)
	assert.True(t, res.IsAIGenerated)
	assert.Equal(t, []string{"1 of 2 sentences flagged as AI-written"}, res.Indicators)
}

func TestGPTZeroReportsUpstreamStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewGPTZero(config.ProviderConfig{BaseURL: srv.URL, APIKey: "k"})
	_, err := p.Detect(context.Background(), Content{Type: model.ContentText, Text: "x"})

	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, http.StatusTooManyRequests, perr.StatusCode)
	assert.Equal(t, GPTZeroName, perr.Provider)
}
