// Package models содержит доменные сущности sabha.
package models

import (
	"time"

	"github.com/google/uuid"
)

// User: зарегистрированный участник форума.
// PasswordHash наружу не сериализуется.
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Image        string    `json:"image,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
