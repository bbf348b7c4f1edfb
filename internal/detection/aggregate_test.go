package detection

import (
	"encoding/json"
	"math"
	"testing"

	"milguard_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateMeanAndVerdict(t *testing.T) {
	results := map[string]model.ProviderResult{
		"openai":  {Confidence: 0.9, IsAIGenerated: true, Indicators: []string{"uniform sentence length"}},
		"gptZero": {Confidence: 0.3, Indicators: []string{"uniform sentence length", "low perplexity"}},
	}

	out, err := Aggregate(results)
	require.NoError(t, err)

	assert.InDelta(t, 0.6, out.Overall.Confidence, 1e-9)
	assert.True(t, out.Overall.IsAIGenerated)
	assert.Equal(t, []string{"uniform sentence length", "low perplexity"}, out.Overall.Indicators)
	assert.Contains(t, out.Overall.Reasoning, "2 detection services")
	assert.Contains(t, out.Overall.Reasoning, "60%")
	assert.Contains(t, out.Overall.Reasoning, "Strongest signal from openai")
	assert.Equal(t, results, out.Providers)
}

func TestAggregateThresholdIsExclusive(t *testing.T) {
	out, err := Aggregate(map[string]model.ProviderResult{
		"a": {Confidence: 0.4},
		"b": {Confidence: 0.6},
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, out.Overall.Confidence, 1e-9)
	assert.False(t, out.Overall.IsAIGenerated)
}

func TestAggregateSingleProvider(t *testing.T) {
	out, err := Aggregate(map[string]model.ProviderResult{
		"aiOrNot": {Confidence: 0.82, IsAIGenerated: true},
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.82, out.Overall.Confidence, 1e-9)
	assert.True(t, out.Overall.IsAIGenerated)
	assert.Contains(t, out.Overall.Reasoning, "1 detection service analyzed")
	assert.NotNil(t, out.Overall.Indicators)
	assert.Empty(t, out.Overall.Indicators)
}

func TestAggregateClampsOnlyTheMean(t *testing.T) {
	results := map[string]model.ProviderResult{
		"high": {Confidence: 1.7},
		"low":  {Confidence: -0.4},
		"nan":  {Confidence: math.NaN()},
	}
	out, err := Aggregate(results)
	require.NoError(t, err)

	assert.InDelta(t, 1.0/3.0, out.Overall.Confidence, 1e-9)
	assert.GreaterOrEqual(t, out.Overall.Confidence, 0.0)
	assert.LessOrEqual(t, out.Overall.Confidence, 1.0)
	// raw provider values survive untouched
	assert.Equal(t, 1.7, out.Providers["high"].Confidence)
	assert.Equal(t, -0.4, out.Providers["low"].Confidence)
}

func TestAggregateNonFiniteConfidenceStillEncodes(t *testing.T) {
	results := map[string]model.ProviderResult{
		"openai":  {Confidence: 0.9},
		"nan":     {Confidence: math.NaN()},
		"overrun": {Confidence: math.Inf(1)},
	}
	out, err := Aggregate(results)
	require.NoError(t, err)

	assert.Equal(t, 0.0, out.Providers["nan"].Confidence)
	assert.Equal(t, 1.0, out.Providers["overrun"].Confidence)
	assert.Equal(t, 0.9, out.Providers["openai"].Confidence)
	assert.InDelta(t, 1.9/3.0, out.Overall.Confidence, 1e-9)

	// one malformed provider must not make the whole record unencodable
	data, err := json.Marshal(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"nan":{"confidence":0`)
}

func TestAggregateIsDeterministic(t *testing.T) {
	results := map[string]model.ProviderResult{
		"c": {Confidence: 0.2, Indicators: []string{"x"}},
		"a": {Confidence: 0.8, Indicators: []string{"y"}},
		"b": {Confidence: 0.5, Indicators: []string{"x", "z"}},
	}
	first, err := Aggregate(results)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := Aggregate(results)
		require.NoError(t, err)
		assert.Equal(t, first.Overall, again.Overall)
	}
	assert.Equal(t, []string{"y", "x", "z"}, first.Overall.Indicators)
}

func TestAggregateEmpty(t *testing.T) {
	_, err := Aggregate(nil)
	assert.ErrorIs(t, err, ErrNoVerdict)
}

func TestSeverity(t *testing.T) {
	cases := []struct {
		confidence float64
		want       Level
	}{
		{0, LevelLow},
		{0.39, LevelLow},
		{0.4, LevelMedium},
		{0.7, LevelMedium},
		{0.71, LevelHigh},
		{1, LevelHigh},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Severity(tc.confidence), "confidence %v", tc.confidence)
	}
}

func TestPartialNote(t *testing.T) {
	assert.Empty(t, PartialNote(3, nil))
	assert.Equal(t, "2 of 3 detection services responded; unavailable: gptZero",
		PartialNote(3, []string{"gptZero"}))
}
