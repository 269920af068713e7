package models

import "time"

// ModerationVerdict: решение гейта модерации по тексту комментария.
// При IsAppropriate=false поля Reason и Suggestion всегда непустые.
type ModerationVerdict struct {
	IsAppropriate bool   `json:"isAppropriate"`
	Reason        string `json:"reason,omitempty"`
	Suggestion    string `json:"suggestion,omitempty"`
}

// SnapshotComment: комментарий в том виде, в каком он уходит в дайджест.
type SnapshotComment struct {
	Content    string    `json:"content"`
	AuthorName string    `json:"authorName"`
	CreatedAt  time.Time `json:"createdAt"`
}

// DiscussionSnapshot: тема и ограниченная выборка её последних комментариев.
type DiscussionSnapshot struct {
	TopicTitle   string
	TopicContent string
	Comments     []SnapshotComment
}

// Sentiment: общий тон обсуждения.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Engagement: уровень вовлечённости участников.
type Engagement string

const (
	EngagementHigh   Engagement = "high"
	EngagementMedium Engagement = "medium"
	EngagementLow    Engagement = "low"
)

// FactOpinionRatio: доли (в процентах) фактов, мнений, смешанных реплик и вопросов.
// Компоненты независимы и не нормализуются к 100.
type FactOpinionRatio struct {
	Facts     int `json:"facts"`
	Opinions  int `json:"opinions"`
	Mixed     int `json:"mixed"`
	Questions int `json:"questions"`
}

// DiscussionAnalysis: дайджест обсуждения. Всегда полностью заполнен.
type DiscussionAnalysis struct {
	OverallSentiment Sentiment        `json:"overallSentiment"`
	FactOpinionRatio FactOpinionRatio `json:"factOpinionRatio"`
	KeyThemes        []string         `json:"keyThemes"`
	EngagementLevel  Engagement       `json:"engagementLevel"`
	Suggestions      []string         `json:"suggestions"`
}

// Classification: характер отдельного комментария.
type Classification string

const (
	ClassFact     Classification = "fact"
	ClassOpinion  Classification = "opinion"
	ClassMixed    Classification = "mixed"
	ClassQuestion Classification = "question"
)

// CommentAnalysis: оценка релевантности и характера одного комментария.
type CommentAnalysis struct {
	RelevanceScore int            `json:"relevanceScore"`
	Classification Classification `json:"classification"`
	Reasoning      string         `json:"reasoning"`
	Suggestions    []string       `json:"suggestions"`
}
