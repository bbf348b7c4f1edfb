package model

import "time"

type AchievementType string

const (
	AchievementFirstAnalysis      AchievementType = "first_analysis"
	AchievementStreak             AchievementType = "streak"
	AchievementModuleComplete     AchievementType = "module_complete"
	AchievementCurriculumComplete AchievementType = "curriculum_complete"
)

// Achievement is an append-only badge. (UserID, Type, SubjectID) is unique;
// SubjectID names the qualifying instance, e.g. the completed module id.
// swagger:model Achievement
type Achievement struct {
	UUIDBase
	UserID      string          `gorm:"type:varchar(36);uniqueIndex:idx_achievement_subject;not null" json:"userId"`
	Type        AchievementType `gorm:"size:50;uniqueIndex:idx_achievement_subject;not null" json:"type"`
	SubjectID   string          `gorm:"size:64;uniqueIndex:idx_achievement_subject;not null;default:''" json:"subjectId,omitempty"`
	Title       string          `gorm:"size:255;not null" json:"title"`
	Description string          `gorm:"type:text" json:"description"`
	EarnedAt    time.Time       `json:"earnedAt"`
}

func (Achievement) TableName() string {
	return "achievements"
}
