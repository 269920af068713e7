package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pribylovaa/sabha/internal/insights"
	"github.com/pribylovaa/sabha/internal/models"
	"github.com/pribylovaa/sabha/internal/pkg/log"
	"github.com/pribylovaa/sabha/internal/storage"
)

// AI-действия над темами и комментариями. Отказы классификатора здесь не видны:
// insights всегда возвращает значение (подсказки, исходный текст или значения по умолчанию).
// Ошибки сервиса возникают только из-за входа и стораджа.

// SuggestComments предлагает комментарии к теме с учётом нескольких уже существующих.
func (s *Service) SuggestComments(ctx context.Context, topicID uuid.UUID) ([]string, error) {
	const op = "service/ai/SuggestComments"

	post, err := s.topic(ctx, op, topicID)
	if err != nil {
		return nil, err
	}

	recent, err := s.storage.RecentComments(ctx, topicID, s.cfg.Limits.SuggestionComments)
	if err != nil {
		log.From(ctx).Error("storage error on RecentComments", "op", op, "err", err)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	existing := make([]string, 0, len(recent))
	for _, c := range recent {
		existing = append(existing, c.Content)
	}

	return s.insights.SuggestComments(ctx, post.Title, post.Content, existing), nil
}

// EnhanceComment улучшает формулировку комментария в контексте темы.
func (s *Service) EnhanceComment(ctx context.Context, topicID uuid.UUID, text string) (string, error) {
	const op = "service/ai/EnhanceComment"

	text = strings.TrimSpace(text)
	if text == "" {
		log.From(ctx).Warn("invalid argument: empty comment", "op", op)
		return "", fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	post, err := s.topic(ctx, op, topicID)
	if err != nil {
		return "", err
	}

	return s.insights.EnhanceComment(ctx, text, post.Title), nil
}

// SuggestReplies предлагает ответы на комментарий темы.
func (s *Service) SuggestReplies(ctx context.Context, topicID, commentID uuid.UUID) ([]string, error) {
	const op = "service/ai/SuggestReplies"

	lg := log.From(ctx).With("op", op, "topic_id", topicID.String(), "comment_id", commentID.String())

	if commentID == uuid.Nil {
		lg.Warn("invalid argument: empty comment_id")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	post, err := s.topic(ctx, op, topicID)
	if err != nil {
		return nil, err
	}

	comment, err := s.storage.CommentByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("comment not found")
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		lg.Error("storage error on CommentByID", "err", err)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	if comment.PostID != post.ID {
		lg.Warn("comment belongs to another topic")
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	return s.insights.SuggestReplies(ctx, comment.Content, post.Title, post.Content), nil
}

// ModerateText проверяет текст без сохранения (предпросмотр модерации).
func (s *Service) ModerateText(ctx context.Context, text string) (models.ModerationVerdict, error) {
	const op = "service/ai/ModerateText"

	text = strings.TrimSpace(text)
	if text == "" {
		log.From(ctx).Warn("invalid argument: empty comment", "op", op)
		return models.ModerationVerdict{}, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	return s.insights.Moderate(ctx, text), nil
}

// AnalyzeComment оценивает релевантность и характер текста относительно темы.
func (s *Service) AnalyzeComment(ctx context.Context, topicID uuid.UUID, text string) (models.CommentAnalysis, error) {
	const op = "service/ai/AnalyzeComment"

	text = strings.TrimSpace(text)
	if text == "" {
		log.From(ctx).Warn("invalid argument: empty comment", "op", op)
		return models.CommentAnalysis{}, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	post, err := s.topic(ctx, op, topicID)
	if err != nil {
		return models.CommentAnalysis{}, err
	}

	return s.insights.AnalyzeComment(ctx, text, post.Title, post.Content), nil
}

// AnalyzeDiscussion строит дайджест обсуждения по последним комментариям темы.
// Меньше двух комментариев: ErrNotEnoughComments.
func (s *Service) AnalyzeDiscussion(ctx context.Context, topicID uuid.UUID) (models.DiscussionAnalysis, error) {
	const op = "service/ai/AnalyzeDiscussion"

	lg := log.From(ctx).With("op", op, "topic_id", topicID.String())

	post, err := s.topic(ctx, op, topicID)
	if err != nil {
		return models.DiscussionAnalysis{}, err
	}

	recent, err := s.storage.RecentComments(ctx, topicID, s.cfg.Limits.DigestComments)
	if err != nil {
		lg.Error("storage error on RecentComments", "err", err)
		return models.DiscussionAnalysis{}, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	if len(recent) < insights.MinDigestComments {
		lg.Warn("not enough comments", "count", len(recent))
		return models.DiscussionAnalysis{}, fmt.Errorf("%s: %w", op, ErrNotEnoughComments)
	}

	snapshot := models.DiscussionSnapshot{
		TopicTitle:   post.Title,
		TopicContent: post.Content,
		Comments:     make([]models.SnapshotComment, 0, len(recent)),
	}
	// RecentComments отдаёт новые первыми; в запрос уходит хронологический порядок.
	for i := len(recent) - 1; i >= 0; i-- {
		snapshot.Comments = append(snapshot.Comments, models.SnapshotComment{
			Content:    recent[i].Content,
			AuthorName: recent[i].AuthorName,
			CreatedAt:  recent[i].CreatedAt,
		})
	}

	analysis, err := s.insights.AnalyzeDiscussion(ctx, snapshot)
	if err != nil {
		if errors.Is(err, insights.ErrNotEnoughComments) {
			return models.DiscussionAnalysis{}, fmt.Errorf("%s: %w", op, ErrNotEnoughComments)
		}

		lg.Error("unexpected digest error", "err", err)
		return models.DiscussionAnalysis{}, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	return analysis, nil
}

// EnhanceTopic улучшает (или генерирует при пустом content) описание темы.
func (s *Service) EnhanceTopic(ctx context.Context, title, content, category string) (string, error) {
	const op = "service/ai/EnhanceTopic"

	title = strings.TrimSpace(title)
	if title == "" {
		log.From(ctx).Warn("invalid argument: empty title", "op", op)
		return "", fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	return s.insights.EnhanceTopic(ctx, title, strings.TrimSpace(content), strings.TrimSpace(category)), nil
}

// SuggestTopicImprovements предлагает улучшения формулировки темы.
func (s *Service) SuggestTopicImprovements(ctx context.Context, title, content string) ([]string, error) {
	const op = "service/ai/SuggestTopicImprovements"

	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" || content == "" {
		log.From(ctx).Warn("invalid argument: empty title or content", "op", op)
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	return s.insights.SuggestTopicImprovements(ctx, title, content), nil
}

// topic читает тему по id с валидацией.
func (s *Service) topic(ctx context.Context, op string, id uuid.UUID) (*models.Post, error) {
	if id == uuid.Nil {
		log.From(ctx).Warn("invalid argument: empty topic_id", "op", op)
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	return s.postByID(ctx, op, id)
}
