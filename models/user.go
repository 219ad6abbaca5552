package models

import (
	"time"

	"gorm.io/gorm"
)

// User is an externally issued player identity. Only the id and display
// name are read by the game server.
type User struct {
	ID        string         `json:"id" gorm:"primaryKey"`
	Username  string         `json:"username"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
