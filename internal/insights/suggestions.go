package insights

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/pribylovaa/sabha/internal/classifier"
)

const (
	maxSuggestions      = 3
	maxTopicSuggestions = 4
)

// bulletRe: маркеры списков в начале строки: "-", "*", "•", "1.", "2)".
var bulletRe = regexp.MustCompile(`^(?:[-*•]+|\d+[.)])\s*`)

// SuggestComments предлагает до трёх комментариев к теме с учётом уже сказанного.
func (e *Engine) SuggestComments(ctx context.Context, title, content string, existing []string) []string {
	return e.suggest(ctx, classifier.KindCommentSuggestions, commentSuggestionsPrompt(title, content, existing), maxSuggestions)
}

// SuggestReplies предлагает до трёх ответов на комментарий.
func (e *Engine) SuggestReplies(ctx context.Context, commentText, title, content string) []string {
	return e.suggest(ctx, classifier.KindReplySuggestions, replySuggestionsPrompt(commentText, title, content), maxSuggestions)
}

// SuggestTopicImprovements предлагает до четырёх улучшений формулировки темы.
func (e *Engine) SuggestTopicImprovements(ctx context.Context, title, content string) []string {
	return e.suggest(ctx, classifier.KindTopicSuggestions, topicSuggestionsPrompt(title, content), maxTopicSuggestions)
}

// EnhanceComment возвращает улучшенный текст комментария.
// При отказе или пустом ответе возвращается исходный текст.
func (e *Engine) EnhanceComment(ctx context.Context, commentText, topicTitle string) string {
	return e.enhance(ctx, classifier.KindCommentEnhance, enhanceCommentPrompt(commentText, topicTitle), commentText)
}

// EnhanceTopic возвращает описание темы. При пустом content описание генерируется с нуля.
// При отказе возвращается исходный content.
func (e *Engine) EnhanceTopic(ctx context.Context, title, content, category string) string {
	return e.enhance(ctx, classifier.KindTopicEnhance, enhanceTopicPrompt(title, content, category), content)
}

var errNoSuggestions = errors.New("no suggestions in classifier output")

func (e *Engine) suggest(ctx context.Context, kind classifier.Kind, prompt string, limit int) []string {
	raw, err := e.call(ctx, kind, prompt)
	if err != nil {
		observe(ctx, kind, StateFallback, err)
		return []string{}
	}

	items, state := parseSuggestions(raw, limit)
	var perr error
	if state == StateFallback {
		perr = errNoSuggestions
	}
	observe(ctx, kind, state, perr)

	return items
}

func (e *Engine) enhance(ctx context.Context, kind classifier.Kind, prompt, original string) string {
	raw, err := e.call(ctx, kind, prompt)
	if err != nil {
		observe(ctx, kind, StateFallback, err)
		return original
	}

	text := cleanText(raw)
	if text == "" {
		observe(ctx, kind, StateFallback, classifier.ErrEmptyResponse)
		return original
	}

	observe(ctx, kind, StateParsed, nil)

	return text
}

// parseSuggestions разбирает список подсказок:
//   - JSON-массив строк (в том числе после repair);
//   - JSON-объект с ключом "suggestions";
//   - если ответ не JSON, построчно, со снятием маркеров списка.
func parseSuggestions(raw string, limit int) ([]string, State) {
	res := parseJSON[json.RawMessage](raw)
	if res.Ok() {
		payload := res.Value
		if t := strings.TrimSpace(string(payload)); strings.HasPrefix(t, "{") {
			var obj map[string]json.RawMessage
			if json.Unmarshal(payload, &obj) == nil {
				payload = obj["suggestions"]
			}
		}

		if items := asStrings(payload, limit); len(items) > 0 {
			return items, res.State
		}

		// Валидный JSON без строк (ошибка провайдера, числа, пустой список):
		// это не текст подсказок, построчный разбор не применяем.
		return []string{}, StateFallback
	}

	items := splitLines(raw, limit)
	if len(items) == 0 {
		return []string{}, StateFallback
	}

	return items, StateRepaired
}

func splitLines(raw string, limit int) []string {
	out := make([]string, 0, limit)

	for _, line := range strings.Split(raw, "\n") {
		if len(out) == limit {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "```") {
			continue
		}

		switch line {
		case "[", "]", "{", "}", "],", "},":
			continue
		}

		line = bulletRe.ReplaceAllString(line, "")
		line = strings.TrimSuffix(line, ",")
		line = strings.Trim(line, `"`)
		line = strings.TrimSpace(line)

		if line != "" {
			out = append(out, line)
		}
	}

	return out
}

// cleanText снимает обрамляющие ``` и кавычки со свободного текстового ответа.
func cleanText(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if i := strings.IndexByte(s, '\n'); i >= 0 && !strings.Contains(s[:i], " ") {
			s = s[i+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}

	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}

	return strings.TrimSpace(s)
}
