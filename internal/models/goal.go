package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Goal carries no owner column. Ownership is derived through its tasks:
// every task referencing a goal must share one user_id.
type Goal struct {
	gorm.Model

	Name string `gorm:"size:100;not null"`

	// Raw decomposition payload as returned by the generation service,
	// kept so a bad decomposition can be inspected later.
	Raw datatypes.JSON

	// Relationships
	Tasks []Task `gorm:"foreignKey:GoalID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
