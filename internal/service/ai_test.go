package service

// Тесты AI-действий (ai.go).
//
// Проверяем:
//  - дайджест: < 2 комментариев -> ErrNotEnoughComments без обращения к классификатору;
//    отказ классификатора -> нейтральные значения по умолчанию, а не ошибка;
//    комментарии уходят в запрос в хронологическом порядке;
//  - подсказки/улучшения: валидация входа и поведение при отказе классификатора;
//  - ответ на комментарий из чужой темы -> ErrNotFound.

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/pribylovaa/sabha/internal/classifier"
	"github.com/pribylovaa/sabha/internal/insights"
	"github.com/pribylovaa/sabha/internal/models"
	"github.com/stretchr/testify/require"
)

func recentComments(postID uuid.UUID, n int) []models.Comment {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	out := make([]models.Comment, 0, n)
	// Новые первыми, как отдаёт RecentComments.
	for i := n - 1; i >= 0; i-- {
		out = append(out, models.Comment{
			ID:         uuid.New(),
			PostID:     postID,
			AuthorName: "user",
			Content:    "comment-" + string(rune('A'+i)),
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		})
	}
	return out
}

func TestAnalyzeDiscussion_NotEnoughComments(t *testing.T) {
	env := newEnv(t)
	post := testPost(uuid.New())

	env.st.EXPECT().PostByID(gomock.Any(), post.ID).Return(post, nil)
	env.st.EXPECT().RecentComments(gomock.Any(), post.ID, 20).Return(recentComments(post.ID, 1), nil)

	_, err := env.svc.AnalyzeDiscussion(context.Background(), post.ID)
	require.ErrorIs(t, err, ErrNotEnoughComments)
}

func TestAnalyzeDiscussion_OutageFallback(t *testing.T) {
	env := newEnv(t)
	post := testPost(uuid.New())

	env.st.EXPECT().PostByID(gomock.Any(), post.ID).Return(post, nil)
	env.st.EXPECT().RecentComments(gomock.Any(), post.ID, 20).Return(recentComments(post.ID, 3), nil)
	env.clf.EXPECT().Classify(gomock.Any(), gomock.Any(), gomock.Any()).Return("", errors.New("503")).AnyTimes()

	got, err := env.svc.AnalyzeDiscussion(context.Background(), post.ID)
	require.NoError(t, err)
	require.Equal(t, insights.DefaultDiscussionAnalysis(), got)
}

func TestAnalyzeDiscussion_ChronologicalPrompt(t *testing.T) {
	env := newEnv(t)
	post := testPost(uuid.New())

	env.st.EXPECT().PostByID(gomock.Any(), post.ID).Return(post, nil)
	env.st.EXPECT().RecentComments(gomock.Any(), post.ID, 20).Return(recentComments(post.ID, 3), nil)
	env.clf.EXPECT().
		Classify(gomock.Any(), classifier.KindDiscussionAnalyze, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ classifier.Kind, prompt string) (string, error) {
			a := strings.Index(prompt, "comment-A")
			c := strings.Index(prompt, "comment-C")
			require.True(t, a >= 0 && c > a, "oldest comment must come first")
			return `{"overallSentiment":"positive","engagementLevel":"high"}`, nil
		})

	got, err := env.svc.AnalyzeDiscussion(context.Background(), post.ID)
	require.NoError(t, err)
	require.Equal(t, models.SentimentPositive, got.OverallSentiment)
	require.Equal(t, models.EngagementHigh, got.EngagementLevel)
}

func TestSuggestComments_UsesExisting(t *testing.T) {
	env := newEnv(t)
	post := testPost(uuid.New())

	env.st.EXPECT().PostByID(gomock.Any(), post.ID).Return(post, nil)
	env.st.EXPECT().RecentComments(gomock.Any(), post.ID, 5).Return(recentComments(post.ID, 2), nil)
	env.clf.EXPECT().
		Classify(gomock.Any(), classifier.KindCommentSuggestions, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ classifier.Kind, prompt string) (string, error) {
			require.Contains(t, prompt, "comment-A")
			require.Contains(t, prompt, post.Title)
			return `["One", "Two"]`, nil
		})

	got, err := env.svc.SuggestComments(context.Background(), post.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"One", "Two"}, got)
}

func TestSuggestReplies_CommentFromOtherTopic(t *testing.T) {
	env := newEnv(t)
	post := testPost(uuid.New())
	c := &models.Comment{ID: uuid.New(), PostID: uuid.New(), Content: "x"}

	env.st.EXPECT().PostByID(gomock.Any(), post.ID).Return(post, nil)
	env.st.EXPECT().CommentByID(gomock.Any(), c.ID).Return(c, nil)

	_, err := env.svc.SuggestReplies(context.Background(), post.ID, c.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestEnhanceComment_OutageReturnsOriginal(t *testing.T) {
	env := newEnv(t)
	post := testPost(uuid.New())

	env.st.EXPECT().PostByID(gomock.Any(), post.ID).Return(post, nil)
	env.clf.EXPECT().Classify(gomock.Any(), classifier.KindCommentEnhance, gomock.Any()).Return("", classifier.ErrDisabled)

	got, err := env.svc.EnhanceComment(context.Background(), post.ID, " my words ")
	require.NoError(t, err)
	require.Equal(t, "my words", got)

	_, err = env.svc.EnhanceComment(context.Background(), post.ID, " ")
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestModerateText(t *testing.T) {
	env := newEnv(t)

	_, err := env.svc.ModerateText(context.Background(), "")
	require.ErrorIs(t, err, ErrInvalidArgument)

	env.clf.EXPECT().Classify(gomock.Any(), classifier.KindCommentModerate, gomock.Any()).Return(`{"isAppropriate": false}`, nil)
	v, err := env.svc.ModerateText(context.Background(), "hmm")
	require.NoError(t, err)
	require.False(t, v.IsAppropriate)
	require.Equal(t, insights.DefaultRejectReason, v.Reason)
	require.Equal(t, insights.DefaultRejectSuggestion, v.Suggestion)
}

func TestAnalyzeComment_TopicRequired(t *testing.T) {
	env := newEnv(t)

	_, err := env.svc.AnalyzeComment(context.Background(), uuid.Nil, "text")
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestTopicHelpers_Validation(t *testing.T) {
	env := newEnv(t)

	_, err := env.svc.EnhanceTopic(context.Background(), " ", "", "")
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = env.svc.SuggestTopicImprovements(context.Background(), "Title", " ")
	require.ErrorIs(t, err, ErrInvalidArgument)

	env.clf.EXPECT().Classify(gomock.Any(), classifier.KindTopicSuggestions, gomock.Any()).Return("- Add a photo", nil)
	got, err := env.svc.SuggestTopicImprovements(context.Background(), "Title", "Body")
	require.NoError(t, err)
	require.Equal(t, []string{"Add a photo"}, got)
}
