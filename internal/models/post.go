package models

import (
	"time"

	"github.com/google/uuid"
)

// PostType: вид обращения.
type PostType string

const (
	PostTypeIssue      PostType = "issue"
	PostTypeFeedback   PostType = "feedback"
	PostTypeSuggestion PostType = "suggestion"
)

// Valid сообщает, входит ли значение в допустимый набор.
func (t PostType) Valid() bool {
	switch t {
	case PostTypeIssue, PostTypeFeedback, PostTypeSuggestion:
		return true
	}
	return false
}

// Priority: приоритет обращения.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Governance: уровень власти, к которому адресовано обращение.
type Governance string

const (
	GovernanceNational Governance = "national"
	GovernanceState    Governance = "state"
	GovernanceLocal    Governance = "local"
)

func (g Governance) Valid() bool {
	switch g {
	case GovernanceNational, GovernanceState, GovernanceLocal:
		return true
	}
	return false
}

// PostStatus: стадия рассмотрения обращения.
type PostStatus string

const (
	StatusOpen         PostStatus = "open"
	StatusInReview     PostStatus = "in_review"
	StatusAcknowledged PostStatus = "acknowledged"
	StatusResolved     PostStatus = "resolved"
	StatusRejected     PostStatus = "rejected"
)

func (s PostStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusInReview, StatusAcknowledged, StatusResolved, StatusRejected:
		return true
	}
	return false
}

// Post: обращение (тема обсуждения).
// Важно:
//   - AuthorName/AuthorImage заполняются join'ом с users при чтении;
//   - Upvotes/Downvotes/CommentCount: денормализованные счётчики,
//     всегда пересчитываются через COUNT, а не инкрементом;
//   - Location/OfficialResponse: пустая строка хранится как NULL.
type Post struct {
	ID               uuid.UUID  `json:"id"`
	Title            string     `json:"title"`
	Content          string     `json:"content"`
	AuthorID         uuid.UUID  `json:"authorId"`
	AuthorName       string     `json:"authorName"`
	AuthorImage      string     `json:"authorImage,omitempty"`
	CategoryID       *uuid.UUID `json:"categoryId,omitempty"`
	PostType         PostType   `json:"postType"`
	Priority         Priority   `json:"priorityLevel"`
	Governance       Governance `json:"governanceLevel"`
	Status           PostStatus `json:"status"`
	Location         string     `json:"location,omitempty"`
	Deadline         *time.Time `json:"deadline,omitempty"`
	OfficialResponse string     `json:"officialResponse,omitempty"`
	Upvotes          int        `json:"upvotes"`
	Downvotes        int        `json:"downvotes"`
	CommentCount     int        `json:"commentCount"`
	ViewCount        int        `json:"viewCount"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// PostFilter: фильтры и параметры страницы для списка обращений.
// Пустые значения фильтров не применяются.
type PostFilter struct {
	Type       PostType
	Priority   Priority
	Governance Governance
	Status     PostStatus
	Location   string
	CategoryID *uuid.UUID
	PageSize   int32
	PageToken  string
}

// PostPage: результат постраничной выдачи.
type PostPage struct {
	Items         []Post `json:"items"`
	NextPageToken string `json:"nextPageToken,omitempty"`
}

// PostUpdate: частичное обновление; nil означает «не трогать».
// ClearDeadline сбрасывает срок в NULL.
type PostUpdate struct {
	Title            *string
	Content          *string
	Priority         *Priority
	Status           *PostStatus
	Location         *string
	Deadline         *time.Time
	ClearDeadline    bool
	OfficialResponse *string
}
