package model

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

type ContentType string

const (
	ContentText  ContentType = "text"
	ContentImage ContentType = "image"
	ContentAudio ContentType = "audio"
)

func (t ContentType) Valid() bool {
	switch t {
	case ContentText, ContentImage, ContentAudio:
		return true
	}
	return false
}

// IsFile reports whether the content arrives as an uploaded file.
func (t ContentType) IsFile() bool {
	return t == ContentImage || t == ContentAudio
}

// ProviderResult is one detection service's verdict. Metadata holds
// provider-specific extras and is passed through untouched.
type ProviderResult struct {
	Confidence    float64                `json:"confidence"`
	IsAIGenerated bool                   `json:"isAiGenerated"`
	Reasoning     string                 `json:"reasoning,omitempty"`
	Indicators    []string               `json:"indicators,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}

// OverallVerdict is the combined verdict across all responding providers.
type OverallVerdict struct {
	Confidence    float64  `json:"confidence"`
	IsAIGenerated bool     `json:"isAiGenerated"`
	Reasoning     string   `json:"reasoning"`
	Indicators    []string `json:"indicators"`
	Note          string   `json:"note,omitempty"`
}

const OverallKey = "overall"

// DetectionResults serializes as {"<provider>": {...}, "overall": {...}}.
type DetectionResults struct {
	Providers map[string]ProviderResult
	Overall   OverallVerdict
}

func (r DetectionResults) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(r.Providers)+1)
	for name, res := range r.Providers {
		out[name] = res
	}
	out[OverallKey] = r.Overall
	return json.Marshal(out)
}

func (r *DetectionResults) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Providers = make(map[string]ProviderResult, len(raw))
	for name, msg := range raw {
		if name == OverallKey {
			if err := json.Unmarshal(msg, &r.Overall); err != nil {
				return fmt.Errorf("overall: %w", err)
			}
			continue
		}
		var res ProviderResult
		if err := json.Unmarshal(msg, &res); err != nil {
			return fmt.Errorf("provider %s: %w", name, err)
		}
		r.Providers[name] = res
	}
	return nil
}

// Analysis is one completed detection run. Rows are never updated.
// swagger:model Analysis
type Analysis struct {
	UUIDBase
	UserID            string                                `gorm:"type:varchar(36);index;not null" json:"userId"`
	ContentType       ContentType                           `gorm:"size:16;not null" json:"contentType"`
	ContentText       string                                `gorm:"type:text" json:"contentText,omitempty"`
	FileName          string                                `gorm:"size:255" json:"fileName,omitempty"`
	FileType          string                                `gorm:"size:100" json:"fileType,omitempty"`
	FileSize          int64                                 `json:"fileSize,omitempty"`
	FileURL           string                                `gorm:"size:512" json:"fileUrl,omitempty"`
	DurationSeconds   float64                               `json:"durationSeconds,omitempty"`
	Results           datatypes.JSONType[DetectionResults] `gorm:"not null" json:"results"`
	OverallConfidence float64                               `gorm:"not null" json:"overallConfidence"`
	IsAIGenerated     bool                                  `gorm:"not null" json:"isAiGenerated"`
	CreatedAt         time.Time                             `gorm:"index" json:"createdAt"`
}

func (Analysis) TableName() string {
	return "analyses"
}
