package models

import (
	"time"

	"github.com/google/uuid"
)

// Tag: отметка обращения: либо ссылка на Official, либо произвольный тег.
// Official заполняется join'ом при чтении, если OfficialID задан.
type Tag struct {
	ID         uuid.UUID  `json:"id"`
	PostID     uuid.UUID  `json:"postId"`
	OfficialID *uuid.UUID `json:"officialTagId,omitempty"`
	CustomTag  string     `json:"customTag,omitempty"`
	Official   *Official  `json:"official,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}
