// classifier: адаптеры внешнего генеративного классификатора.
//
// Classifier принимает вид запроса (Kind) и готовый текст запроса и возвращает
// сырой текстовый ответ модели. Разбор и подстановка значений по умолчанию
// выполняются уровнем выше (internal/insights); здесь только транспорт.
//
// Реализации:
//   - Gemini: google.golang.org/genai;
//   - OpenAI: любой OpenAI-совместимый endpoint через cloudwego/eino;
//   - Disabled: классификатор выключен конфигурацией;
//   - Limited: декоратор с ограничением частоты запросов.
package classifier

//go:generate mockgen -destination=../../mocks/classifier.go -package=mocks github.com/pribylovaa/sabha/internal/classifier Classifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/pribylovaa/sabha/internal/config"
)

var (
	// ErrDisabled: классификатор отключён конфигурацией (provider=none).
	ErrDisabled = errors.New("classifier disabled")
	// ErrEmptyResponse: провайдер ответил без текста.
	ErrEmptyResponse = errors.New("empty classifier response")
)

// Kind: вид запроса к классификатору.
type Kind string

const (
	KindCommentSuggestions Kind = "comment-suggestions"
	KindCommentEnhance     Kind = "comment-enhance"
	KindReplySuggestions   Kind = "reply-suggestions"
	KindCommentModerate    Kind = "comment-moderate"
	KindCommentAnalyze     Kind = "comment-analyze"
	KindDiscussionAnalyze  Kind = "discussion-analyze"
	KindTopicEnhance       Kind = "topic-enhance"
	KindTopicSuggestions   Kind = "topic-suggestions"
)

// JSON сообщает, ожидается ли от модели JSON-ответ.
// Для enhance-запросов ответ: свободный текст.
func (k Kind) JSON() bool {
	switch k {
	case KindCommentEnhance, KindTopicEnhance:
		return false
	}
	return true
}

// systemPrompt: общая инструкция для модели в зависимости от формата ответа.
func (k Kind) systemPrompt() string {
	if k.JSON() {
		return `You are the assistant of "Sabha", a civic discussion forum. Respond with valid JSON only, without markdown or commentary.`
	}
	return `You are the assistant of "Sabha", a civic discussion forum. Respond with the requested text only.`
}

// Classifier: контракт внешнего классификатора.
type Classifier interface {
	// Classify отправляет payload и возвращает текст ответа модели.
	// Ошибка означает отказ зависимости (сеть, таймаут, лимит, пустой ответ).
	Classify(ctx context.Context, kind Kind, payload string) (string, error)
}

// New собирает классификатор по конфигурации.
// Для реальных провайдеров результат обёрнут в Limited.
func New(ctx context.Context, cfg config.ClassifierConfig) (Classifier, error) {
	const op = "classifier/New"

	var (
		c   Classifier
		err error
	)

	switch cfg.Provider {
	case config.ProviderNone, "":
		return Disabled{}, nil
	case config.ProviderGemini:
		c, err = NewGemini(ctx, cfg.APIKey, cfg.Model)
	case config.ProviderOpenAI:
		c, err = NewOpenAI(ctx, cfg.BaseURL, cfg.APIKey, cfg.Model)
	default:
		return nil, fmt.Errorf("%s: unknown provider %q", op, cfg.Provider)
	}

	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return NewLimited(c, cfg.RPM, cfg.Burst), nil
}

// Disabled: классификатор-заглушка: каждый вызов завершается ErrDisabled,
// что для гейта и дайджеста равносильно недоступности зависимости.
type Disabled struct{}

func (Disabled) Classify(context.Context, Kind, string) (string, error) {
	return "", ErrDisabled
}
