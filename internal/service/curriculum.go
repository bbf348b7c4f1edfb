package service

import (
	"context"

	"milguard_backend/internal/model"
	"milguard_backend/internal/repository"
	"milguard_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// DefaultCurriculum is the media-literacy track installed on first start.
func DefaultCurriculum() []model.LearningModule {
	modules := []struct {
		title, description string
		sections           []model.Section
	}{
		{
			title:       "AI Content Basics",
			description: "Understanding AI-generated content and its implications",
			sections: []model.Section{
				{Title: "What is AI-Generated Content?", Type: model.SectionText,
					Content: "Learn about different types of AI-generated content and how they're created."},
				{Title: "Common AI Tools", Type: model.SectionInteractive,
					Content:     "Explore popular AI tools and their capabilities.",
					Interactive: &model.InteractivePayload{Activity: "tool-explorer"}},
			},
		},
		{
			title:       "Deepfake Detection",
			description: "Learn to identify AI-generated faces and manipulated videos",
			sections: []model.Section{
				{Title: "Spotting Facial Inconsistencies", Type: model.SectionVideo,
					Content: "Video tutorial on detecting deepfakes"},
				{Title: "Interactive Quiz", Type: model.SectionQuiz,
					Content: "Test your deepfake detection skills",
					Quiz: &model.QuizPayload{
						PassScore: 0.5,
						Questions: []model.QuizQuestion{{
							Prompt:      "Which detail most often gives away a face-swap deepfake?",
							Options:     []string{"Natural blinking", "Blurring at the face boundary", "Consistent lighting"},
							AnswerIndex: 1,
						}},
					}},
			},
		},
		{
			title:       "Source Verification",
			description: "Learn to trace information to its original source and verify credibility",
			sections: []model.Section{
				{Title: "The SIFT Method", Type: model.SectionText,
					Content: "Stop, Investigate, Find, Trace - a systematic approach to verification"},
			},
		},
		{
			title:       "Critical Thinking",
			description: "Advanced techniques for evaluating claims and identifying bias",
			sections: []model.Section{
				{Title: "Cognitive Biases", Type: model.SectionInteractive,
					Content:     "Understanding how biases affect information processing",
					Interactive: &model.InteractivePayload{Activity: "bias-spotter"}},
			},
		},
	}

	out := make([]model.LearningModule, 0, len(modules))
	for i, m := range modules {
		out = append(out, model.LearningModule{
			Title:       m.title,
			Description: m.description,
			Content:     datatypes.NewJSONType(model.ModuleContent{Sections: m.sections}),
			Order:       i + 1,
			IsActive:    true,
		})
	}
	return out
}

// SeedCurriculum installs modules when the store has none. It returns the
// number of modules created.
func SeedCurriculum(ctx context.Context, modules repository.ModuleStore, curriculum []model.LearningModule) (int, error) {
	count, err := modules.Count(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	created := 0
	for i := range curriculum {
		m := curriculum[i]
		if err := m.Content.Data().Validate(); err != nil {
			return created, err
		}
		if err := modules.Create(ctx, &m); err != nil {
			return created, err
		}
		created++
	}
	logger.Log.Info("Seeded learning curriculum", zap.Int("modules", created))
	return created, nil
}
