package models

import "gorm.io/gorm"

type User struct {
	gorm.Model

	Username     string `gorm:"size:20;uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`

	// Relationships
	Tasks []Task `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
