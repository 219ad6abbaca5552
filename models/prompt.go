package models

import (
	"time"

	"gorm.io/gorm"
)

// Prompt is one "pick A or B" line. The left choice is Text[:LeftSplitIndex]
// and the right choice is Text[RightSplitIndex:], counted in runes.
type Prompt struct {
	ID              uint           `json:"id" gorm:"primaryKey"`
	Text            string         `json:"text" gorm:"not null"`
	LeftSplitIndex  int            `json:"l_index" gorm:"not null"`
	RightSplitIndex int            `json:"r_index" gorm:"not null"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `json:"-" gorm:"index"`
}
