package models

import (
	"time"

	"github.com/google/uuid"
)

// Comment: комментарий к обращению или ответ на другой комментарий.
// AuthorName/AuthorImage заполняются join'ом с users при чтении.
type Comment struct {
	ID          uuid.UUID  `json:"id"`
	PostID      uuid.UUID  `json:"postId"`
	AuthorID    uuid.UUID  `json:"authorId"`
	AuthorName  string     `json:"authorName"`
	AuthorImage string     `json:"authorImage,omitempty"`
	ParentID    *uuid.UUID `json:"parentId,omitempty"`
	Content     string     `json:"content"`
	Upvotes     int        `json:"upvotes"`
	Downvotes   int        `json:"downvotes"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}
