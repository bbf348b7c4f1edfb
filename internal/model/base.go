package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UUIDBase is the string primary key shared by every table.
// swagger:model
type UUIDBase struct {
	ID string `gorm:"primaryKey;type:varchar(36)" json:"id"`
}

func (b *UUIDBase) BeforeCreate(tx *gorm.DB) (err error) {
	b.EnsureID()
	return
}

// EnsureID assigns a fresh UUID when the record has none yet.
func (b *UUIDBase) EnsureID() {
	if b.ID == "" {
		b.ID = GenerateUUID()
	}
}

func GenerateUUID() string {
	return uuid.New().String()
}
