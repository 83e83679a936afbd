package models

import (
	"gorm.io/gorm"
)

// Student is a child enrolled for transport. Owned by one parent user;
// referenced by rides and daily rides as a lookup key.
type Student struct {
	gorm.Model
	Name     string `json:"name" binding:"required"`
	Gender   string `json:"gender"`
	Address  string `json:"address"`
	ParentID uint   `json:"parent_id" gorm:"index"`
	Parent   User   `gorm:"foreignKey:ParentID" json:"parent,omitempty"`
}
