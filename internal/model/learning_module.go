package model

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
)

type SectionType string

const (
	SectionText        SectionType = "text"
	SectionVideo       SectionType = "video"
	SectionQuiz        SectionType = "quiz"
	SectionInteractive SectionType = "interactive"
)

type VideoPayload struct {
	URL             string `json:"url"`
	DurationSeconds int    `json:"durationSeconds,omitempty"`
}

type QuizQuestion struct {
	Prompt      string   `json:"prompt"`
	Options     []string `json:"options"`
	AnswerIndex int      `json:"answerIndex"`
	Explanation string   `json:"explanation,omitempty"`
}

type QuizPayload struct {
	Questions []QuizQuestion `json:"questions"`
	PassScore float64        `json:"passScore,omitempty"`
}

type InteractivePayload struct {
	Activity string   `json:"activity"`
	Steps    []string `json:"steps,omitempty"`
}

// Section is one unit of module content. Exactly the payload matching Type
// may be set; text sections carry only Content.
type Section struct {
	Title       string              `json:"title"`
	Type        SectionType         `json:"type"`
	Content     string              `json:"content"`
	Video       *VideoPayload       `json:"video,omitempty"`
	Quiz        *QuizPayload        `json:"quiz,omitempty"`
	Interactive *InteractivePayload `json:"interactive,omitempty"`
}

func (s Section) Validate() error {
	payloads := map[SectionType]bool{
		SectionVideo:       s.Video != nil,
		SectionQuiz:        s.Quiz != nil,
		SectionInteractive: s.Interactive != nil,
	}
	switch s.Type {
	case SectionText, SectionVideo, SectionQuiz, SectionInteractive:
	default:
		return fmt.Errorf("section %q: unknown type %q", s.Title, s.Type)
	}
	for t, set := range payloads {
		if set && t != s.Type {
			return fmt.Errorf("section %q: %s payload on a %s section", s.Title, t, s.Type)
		}
	}
	if s.Type == SectionQuiz && s.Quiz != nil {
		for i, q := range s.Quiz.Questions {
			if q.AnswerIndex < 0 || q.AnswerIndex >= len(q.Options) {
				return fmt.Errorf("section %q: question %d answer out of range", s.Title, i)
			}
		}
	}
	return nil
}

type ModuleContent struct {
	Sections []Section `json:"sections"`
}

func (c ModuleContent) Validate() error {
	for _, s := range c.Sections {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// swagger:model LearningModule
type LearningModule struct {
	UUIDBase
	Title       string                            `gorm:"size:255;not null" json:"title"`
	Description string                            `gorm:"type:text" json:"description"`
	Content     datatypes.JSONType[ModuleContent] `gorm:"not null" json:"content"`
	Order       int                               `gorm:"column:module_order;uniqueIndex;not null" json:"order"`
	IsActive    bool                              `gorm:"not null" json:"isActive"`
}

func (LearningModule) TableName() string {
	return "learning_modules"
}

func (m LearningModule) Sections() []Section {
	return m.Content.Data().Sections
}

// swagger:model UserProgress
type UserProgress struct {
	UUIDBase
	UserID       string     `gorm:"type:varchar(36);uniqueIndex:idx_progress_user_module;not null" json:"userId"`
	ModuleID     string     `gorm:"type:varchar(36);uniqueIndex:idx_progress_user_module;not null" json:"moduleId"`
	Completed    bool       `gorm:"not null" json:"completed"`
	Progress     float64    `gorm:"not null" json:"progress"`
	LastAccessed time.Time  `json:"lastAccessed"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
}

func (UserProgress) TableName() string {
	return "user_progress"
}

// ProgressPatch is a partial progress update. Nil fields are not touched.
type ProgressPatch struct {
	Progress  *float64
	Completed *bool
}

// Apply merges patch into p. Completion is terminal: a completed row keeps
// completed=true and progress=1 whatever the patch says.
func (p *UserProgress) Apply(patch ProgressPatch, now time.Time) {
	p.LastAccessed = now
	if p.Completed {
		p.Progress = 1
		return
	}
	if patch.Progress != nil {
		p.Progress = clampFraction(*patch.Progress)
	}
	if patch.Completed != nil {
		p.Completed = *patch.Completed
	}
	if p.Completed || p.Progress >= 1 {
		p.Completed = true
		p.Progress = 1
		completedAt := now
		p.CompletedAt = &completedAt
	}
}

func clampFraction(v float64) float64 {
	switch {
	case v != v, v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
