package detection

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"milguard_backend/internal/model"
	"milguard_backend/internal/util"
)

// ErrNoVerdict is returned when no provider produced a usable result.
var ErrNoVerdict = util.ErrNoVerdict

// AIThreshold is the mean confidence above which content is flagged.
// Exactly 0.5 resolves to human.
const AIThreshold = 0.5

type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// Severity bands a confidence for display: >0.7 high, 0.4-0.7 medium, <0.4 low.
func Severity(confidence float64) Level {
	switch {
	case confidence > 0.7:
		return LevelHigh
	case confidence >= 0.4:
		return LevelMedium
	}
	return LevelLow
}

// Clamp bounds a provider confidence to [0,1]. NaN counts as 0.
func Clamp(confidence float64) float64 {
	switch {
	case math.IsNaN(confidence), confidence < 0:
		return 0
	case confidence > 1:
		return 1
	}
	return confidence
}

// Aggregate reduces provider results to one overall verdict. Provider
// entries are passed through unchanged, except that a non-finite confidence
// is stored as its clamped value because JSON cannot carry it. Out-of-range
// finite values are only clamped for the mean.
func Aggregate(results map[string]model.ProviderResult) (model.DetectionResults, error) {
	if len(results) == 0 {
		return model.DetectionResults{}, ErrNoVerdict
	}

	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)

	var (
		sum        float64
		indicators = make([]string, 0)
		seen       = make(map[string]struct{})
		strongest  string
		bestSpread = -1.0
	)
	passthrough := make(map[string]model.ProviderResult, len(results))
	for _, name := range names {
		res := results[name]
		if math.IsNaN(res.Confidence) || math.IsInf(res.Confidence, 0) {
			res.Confidence = Clamp(res.Confidence)
		}
		passthrough[name] = res

		c := Clamp(res.Confidence)
		sum += c
		if spread := math.Abs(c - AIThreshold); spread > bestSpread {
			bestSpread = spread
			strongest = name
		}
		for _, ind := range res.Indicators {
			if _, dup := seen[ind]; dup {
				continue
			}
			seen[ind] = struct{}{}
			indicators = append(indicators, ind)
		}
	}

	mean := sum / float64(len(names))
	isAI := mean > AIThreshold

	return model.DetectionResults{
		Providers: passthrough,
		Overall: model.OverallVerdict{
			Confidence:    mean,
			IsAIGenerated: isAI,
			Reasoning:     summarize(len(names), mean, isAI, strongest, Clamp(results[strongest].Confidence)),
			Indicators:    indicators,
		},
	}, nil
}

func summarize(n int, mean float64, isAI bool, strongest string, strongestConf float64) string {
	services := "service"
	if n != 1 {
		services = "services"
	}
	return fmt.Sprintf("%d detection %s analyzed this content; average AI likelihood %d%%: %s. Strongest signal from %s (%d%%).",
		n, services, percent(mean), verdictPhrase(mean, isAI), strongest, percent(strongestConf))
}

func verdictPhrase(mean float64, isAI bool) string {
	switch {
	case isAI && Severity(mean) == LevelHigh:
		return "likely AI-generated"
	case isAI:
		return "leaning AI-generated, review manually"
	case Severity(mean) == LevelMedium:
		return "leaning human-written, review manually"
	}
	return "likely human-written"
}

func percent(v float64) int {
	return int(math.Round(v * 100))
}

// PartialNote describes providers that were queried but did not answer.
// It returns "" when every queried provider responded.
func PartialNote(queried int, failed []string) string {
	if len(failed) == 0 {
		return ""
	}
	return fmt.Sprintf("%d of %d detection services responded; unavailable: %s",
		queried-len(failed), queried, strings.Join(failed, ", "))
}
