package model

import (
	"time"

	"gorm.io/datatypes"
)

// swagger:model User
type User struct {
	UUIDBase
	Email            string            `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Password         string            `gorm:"size:100;not null" json:"-"`
	Name             string            `gorm:"size:100" json:"name,omitempty"`
	LearningProgress datatypes.JSONMap `json:"learningProgress,omitempty"` // legacy free-form field
	CreatedAt        time.Time         `json:"createdAt"`
}

func (User) TableName() string {
	return "users"
}

// UserUpdate carries the mutable profile fields. Nil fields are left unchanged.
type UserUpdate struct {
	Name             *string
	Password         *string
	LearningProgress map[string]interface{}
}

func (u *User) Apply(update UserUpdate) {
	if update.Name != nil {
		u.Name = *update.Name
	}
	if update.Password != nil {
		u.Password = *update.Password
	}
	if update.LearningProgress != nil {
		u.LearningProgress = datatypes.JSONMap(update.LearningProgress)
	}
}
