package models

import (
	"time"

	"github.com/google/uuid"
)

// ReactionType: вид реакции на обращение.
type ReactionType string

const (
	ReactionLike     ReactionType = "like"
	ReactionDislike  ReactionType = "dislike"
	ReactionLove     ReactionType = "love"
	ReactionAngry    ReactionType = "angry"
	ReactionSad      ReactionType = "sad"
	ReactionLaugh    ReactionType = "laugh"
	ReactionUpvote   ReactionType = "upvote"
	ReactionDownvote ReactionType = "downvote"
)

func (r ReactionType) Valid() bool {
	switch r {
	case ReactionLike, ReactionDislike, ReactionLove, ReactionAngry,
		ReactionSad, ReactionLaugh, ReactionUpvote, ReactionDownvote:
		return true
	}
	return false
}

// Reaction: реакция пользователя; на одно обращение у пользователя не больше одной.
type Reaction struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	PostID    uuid.UUID
	Type      ReactionType
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ReactionChange: что произошло в результате повторного нажатия.
type ReactionChange string

const (
	ReactionAdded   ReactionChange = "added"
	ReactionUpdated ReactionChange = "updated"
	ReactionRemoved ReactionChange = "removed"
)
