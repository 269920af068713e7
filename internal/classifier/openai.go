package classifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// OpenAI: классификатор поверх любого OpenAI-совместимого chat-completions endpoint'а.
type OpenAI struct {
	cm model.BaseChatModel
}

// NewOpenAI создаёт eino ChatModel. Пустой baseURL: официальный endpoint OpenAI.
func NewOpenAI(ctx context.Context, baseURL, apiKey, modelName string) (*OpenAI, error) {
	const op = "classifier/openai/New"

	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   modelName,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return NewOpenAIWithModel(cm), nil
}

// NewOpenAIWithModel оборачивает готовую модель (удобно для тестов).
func NewOpenAIWithModel(cm model.BaseChatModel) *OpenAI {
	return &OpenAI{cm: cm}
}

// Classify отправляет system + user сообщения и возвращает текст ответа.
func (o *OpenAI) Classify(ctx context.Context, kind Kind, payload string) (string, error) {
	const op = "classifier/openai/Classify"

	messages := []*schema.Message{
		{Role: schema.System, Content: kind.systemPrompt()},
		{Role: schema.User, Content: payload},
	}

	resp, err := o.cm.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("%s: %s: %w", op, kind, err)
	}

	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return "", fmt.Errorf("%s: %s: %w", op, kind, ErrEmptyResponse)
	}

	return strings.TrimSpace(resp.Content), nil
}
