package models

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken: серверная запись refresh-токена.
// Хранится только хэш (sha256, base64url), сам секрет знает лишь клиент.
type RefreshToken struct {
	RefreshTokenHash string
	UserID           uuid.UUID
	CreatedAt        time.Time
	ExpiresAt        time.Time
	Revoked          bool
}

// TokenPair: пара токенов, выдаваемая при регистрации/входе/обновлении.
type TokenPair struct {
	// AccessToken: короткоживущий JWT для авторизации запросов.
	AccessToken string `json:"accessToken"`
	// RefreshToken: случайный секрет для обновления пары.
	RefreshToken string `json:"refreshToken"`
	// AccessExpiresAt: время истечения access-токена (UTC).
	AccessExpiresAt time.Time `json:"accessExpiresAt"`
}
