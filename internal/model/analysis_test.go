package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectionResultsWireShape(t *testing.T) {
	results := DetectionResults{
		Providers: map[string]ProviderResult{
			"openai": {Confidence: 0.9, IsAIGenerated: true, Reasoning: "repetitive phrasing"},
		},
		Overall: OverallVerdict{Confidence: 0.9, IsAIGenerated: true, Indicators: []string{}},
	}

	data, err := json.Marshal(results)
	require.NoError(t, err)

	var raw map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Len(t, raw, 2)
	assert.Equal(t, 0.9, raw["openai"]["confidence"])
	assert.Equal(t, true, raw["overall"]["isAiGenerated"])
	assert.NotContains(t, raw["overall"], "note")

	var back DetectionResults
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, results.Overall.Confidence, back.Overall.Confidence)
	assert.Contains(t, back.Providers, "openai")
	assert.NotContains(t, back.Providers, OverallKey)
}

func TestContentType(t *testing.T) {
	assert.True(t, ContentText.Valid())
	assert.False(t, ContentText.IsFile())
	assert.True(t, ContentImage.IsFile())
	assert.True(t, ContentAudio.IsFile())
	assert.False(t, ContentType("video").Valid())
}
