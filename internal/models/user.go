// Package models contains data structures for the application's domain models.
package models

import "time"

// User represents a registered member of the network.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email,omitempty"`
	Password  string    `gorm:"not null" json:"-"`
	Avatar    string    `json:"avatar"`
	CreatedAt time.Time `json:"date"`
}

// TokenResponse is returned by registration and login.
type TokenResponse struct {
	Token string `json:"token"`
}
