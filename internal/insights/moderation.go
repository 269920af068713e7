package insights

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/pribylovaa/sabha/internal/classifier"
	"github.com/pribylovaa/sabha/internal/models"
)

const (
	// DefaultRejectReason подставляется, если модель отклонила текст без объяснения.
	DefaultRejectReason = "Content may violate community guidelines"
	// DefaultRejectSuggestion подставляется, если модель не предложила формулировку.
	DefaultRejectSuggestion = "Please rephrase your comment respectfully."
)

var errNoVerdict = errors.New("isAppropriate is missing or not a boolean")

// Moderate возвращает вердикт модерации для текста.
// Любой отказ (ошибка, таймаут, неразбираемый ответ, нет булева isAppropriate)
// трактуется как одобрение: {IsAppropriate: true}.
// При отказе (IsAppropriate=false) Reason и Suggestion всегда непустые.
func (e *Engine) Moderate(ctx context.Context, text string) models.ModerationVerdict {
	const kind = classifier.KindCommentModerate

	raw, err := e.call(ctx, kind, moderationPrompt(text))
	if err != nil {
		observe(ctx, kind, StateFallback, err)
		return allowVerdict()
	}

	res := parseJSON[map[string]json.RawMessage](raw)
	verdict, err := moderationFrom(res)
	if err != nil {
		observe(ctx, kind, StateFallback, err)
		return allowVerdict()
	}

	observe(ctx, kind, res.State, nil)

	return verdict
}

func allowVerdict() models.ModerationVerdict {
	return models.ModerationVerdict{IsAppropriate: true}
}

// moderationFrom: шаг подстановки значений по умолчанию над результатом разбора.
func moderationFrom(res Result[map[string]json.RawMessage]) (models.ModerationVerdict, error) {
	if !res.Ok() {
		return models.ModerationVerdict{}, res.Err
	}

	ok, present := asBool(res.Value["isAppropriate"])
	if !present {
		return models.ModerationVerdict{}, errNoVerdict
	}

	if ok {
		return allowVerdict(), nil
	}

	reason, _ := asString(res.Value["reason"])
	suggestion, _ := asString(res.Value["suggestion"])

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = DefaultRejectReason
	}

	suggestion = strings.TrimSpace(suggestion)
	if suggestion == "" {
		suggestion = DefaultRejectSuggestion
	}

	return models.ModerationVerdict{
		IsAppropriate: false,
		Reason:        reason,
		Suggestion:    suggestion,
	}, nil
}
