package models

import "gorm.io/gorm"

type Task struct {
	gorm.Model

	Content    string `gorm:"size:100;not null"`
	IsComplete bool   `gorm:"not null;default:false"`
	UserID     uint   `gorm:"not null;index"`
	GoalID     uint   `gorm:"not null;index"`

	// Relationships
	User User `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Goal Goal `gorm:"foreignKey:GoalID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
