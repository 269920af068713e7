package insights

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/pribylovaa/sabha/internal/classifier"
	"github.com/pribylovaa/sabha/internal/models"
)

// ErrNotEnoughComments: для анализа обсуждения нужно хотя бы два комментария.
var ErrNotEnoughComments = errors.New("not enough comments to analyze")

var errNoDigestFields = errors.New("no recognised digest fields")

// MinDigestComments: минимальное число комментариев для анализа обсуждения.
const MinDigestComments = 2

const (
	maxThemes             = 5
	maxDigestSuggestions  = 3
	maxCommentSuggestions = 3
	defaultRelevance      = 50
)

// defaultRatio: значения компонент соотношения по умолчанию.
var defaultRatio = models.FactOpinionRatio{Facts: 25, Opinions: 50, Mixed: 20, Questions: 5}

// DefaultDiscussionAnalysis: результат при полном отказе классификатора.
func DefaultDiscussionAnalysis() models.DiscussionAnalysis {
	return models.DiscussionAnalysis{
		OverallSentiment: models.SentimentNeutral,
		FactOpinionRatio: defaultRatio,
		KeyThemes:        []string{},
		EngagementLevel:  models.EngagementMedium,
		Suggestions:      []string{},
	}
}

// DefaultCommentAnalysis: результат анализа комментария при полном отказе классификатора.
func DefaultCommentAnalysis() models.CommentAnalysis {
	return models.CommentAnalysis{
		RelevanceScore: defaultRelevance,
		Classification: models.ClassMixed,
		Reasoning:      "",
		Suggestions:    []string{},
	}
}

// AnalyzeDiscussion строит дайджест обсуждения по снимку темы и комментариев.
// Меньше двух комментариев: ErrNotEnoughComments без обращения к классификатору.
// В остальных случаях ошибка не возвращается: каждое поле либо взято из ответа, либо по умолчанию.
func (e *Engine) AnalyzeDiscussion(ctx context.Context, snapshot models.DiscussionSnapshot) (models.DiscussionAnalysis, error) {
	const kind = classifier.KindDiscussionAnalyze

	if len(snapshot.Comments) < MinDigestComments {
		return models.DiscussionAnalysis{}, ErrNotEnoughComments
	}

	raw, err := e.call(ctx, kind, discussionPrompt(snapshot))
	if err != nil {
		observe(ctx, kind, StateFallback, err)
		return DefaultDiscussionAnalysis(), nil
	}

	res := parseJSON[map[string]json.RawMessage](raw)
	out, used := discussionFrom(res)

	// Разобранный JSON без единого годного поля: все значения по умолчанию.
	state, perr := res.State, res.Err
	if res.Ok() && !used {
		state, perr = StateFallback, errNoDigestFields
	}
	observe(ctx, kind, state, perr)

	return out, nil
}

// discussionFrom подставляет значения по умолчанию поле за полем.
// used сообщает, взято ли из ответа хотя бы одно поле.
func discussionFrom(res Result[map[string]json.RawMessage]) (out models.DiscussionAnalysis, used bool) {
	out = DefaultDiscussionAnalysis()
	if !res.Ok() {
		return out, false
	}

	v := res.Value

	if s, ok := asString(v["overallSentiment"]); ok {
		switch sent := models.Sentiment(strings.ToLower(strings.TrimSpace(s))); sent {
		case models.SentimentPositive, models.SentimentNeutral, models.SentimentNegative:
			out.OverallSentiment = sent
			used = true
		}
	}

	if s, ok := asString(v["engagementLevel"]); ok {
		switch lvl := models.Engagement(strings.ToLower(strings.TrimSpace(s))); lvl {
		case models.EngagementHigh, models.EngagementMedium, models.EngagementLow:
			out.EngagementLevel = lvl
			used = true
		}
	}

	ratio, ratioUsed := ratioFrom(v["factOpinionRatio"])
	out.FactOpinionRatio = ratio
	out.KeyThemes = asStrings(v["keyThemes"], maxThemes)
	out.Suggestions = asStrings(v["suggestions"], maxDigestSuggestions)

	used = used || ratioUsed || len(out.KeyThemes) > 0 || len(out.Suggestions) > 0

	return out, used
}

// ratioFrom читает компоненты соотношения независимо друг от друга.
// Присутствующие значения ограничиваются [0,100]; нормализации к 100 нет.
func ratioFrom(raw json.RawMessage) (models.FactOpinionRatio, bool) {
	out := defaultRatio

	var fields map[string]json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &fields) != nil {
		return out, false
	}

	used := false
	pick := func(key string, dst *int) {
		if f, ok := asNumber(fields[key]); ok {
			*dst = clampPercent(f)
			used = true
		}
	}

	pick("facts", &out.Facts)
	pick("opinions", &out.Opinions)
	pick("mixed", &out.Mixed)
	pick("questions", &out.Questions)

	return out, used
}

// AnalyzeComment оценивает отдельный комментарий относительно темы. Ошибок не возвращает.
func (e *Engine) AnalyzeComment(ctx context.Context, text, topicTitle, topicContent string) models.CommentAnalysis {
	const kind = classifier.KindCommentAnalyze

	raw, err := e.call(ctx, kind, commentAnalysisPrompt(text, topicTitle, topicContent))
	if err != nil {
		observe(ctx, kind, StateFallback, err)
		return DefaultCommentAnalysis()
	}

	res := parseJSON[map[string]json.RawMessage](raw)
	observe(ctx, kind, res.State, res.Err)

	return commentAnalysisFrom(res)
}

func commentAnalysisFrom(res Result[map[string]json.RawMessage]) models.CommentAnalysis {
	out := DefaultCommentAnalysis()
	if !res.Ok() {
		return out
	}

	v := res.Value

	if f, ok := asNumber(v["relevanceScore"]); ok {
		out.RelevanceScore = clampPercent(f)
	}

	if s, ok := asString(v["classification"]); ok {
		switch cls := models.Classification(strings.ToLower(strings.TrimSpace(s))); cls {
		case models.ClassFact, models.ClassOpinion, models.ClassMixed, models.ClassQuestion:
			out.Classification = cls
		}
	}

	if s, ok := asString(v["reasoning"]); ok {
		out.Reasoning = strings.TrimSpace(s)
	}

	out.Suggestions = asStrings(v["suggestions"], maxCommentSuggestions)

	return out
}
