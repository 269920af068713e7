package insights

import (
	"fmt"
	"strings"

	"github.com/pribylovaa/sabha/internal/models"
)

// Тексты запросов к классификатору. Пользовательский текст всегда подставляется
// в кавычках через %q, чтобы он не смешивался с инструкциями.

const (
	commentBodyLimit  = 500
	existingBodyLimit = 200
)

func moderationPrompt(text string) string {
	return fmt.Sprintf(`Moderate this comment for a civic discussion forum.

Comment: %q

Check for:
- Hate speech, harassment or personal attacks
- Spam or irrelevant promotion
- Threats or incitement to violence
- Excessive profanity

Return a JSON object:
{"isAppropriate": true|false, "reason": "short reason if not appropriate", "suggestion": "how to rephrase if not appropriate"}`,
		text)
}

func discussionPrompt(s models.DiscussionSnapshot) string {
	var b strings.Builder
	for i, c := range s.Comments {
		fmt.Fprintf(&b, "%d. [%s] %q\n", i+1, c.AuthorName, truncateRunes(c.Content, commentBodyLimit))
	}

	return fmt.Sprintf(`Analyze this discussion from a civic forum.

Topic title: %q
Topic content: %q

Comments:
%s
Return a JSON object:
{
  "overallSentiment": "positive" | "neutral" | "negative",
  "factOpinionRatio": {"facts": 0-100, "opinions": 0-100, "mixed": 0-100, "questions": 0-100},
  "keyThemes": ["up to 5 short themes"],
  "engagementLevel": "high" | "medium" | "low",
  "suggestions": ["up to 3 ways to improve the discussion"]
}`,
		s.TopicTitle, s.TopicContent, b.String())
}

func commentAnalysisPrompt(text, title, content string) string {
	return fmt.Sprintf(`Analyze this comment in the context of the topic.

Topic title: %q
Topic content: %q
Comment: %q

Return a JSON object:
{
  "relevanceScore": 0-100,
  "classification": "fact" | "opinion" | "mixed" | "question",
  "reasoning": "one sentence",
  "suggestions": ["up to 3 ways to improve the comment"]
}`,
		title, content, text)
}

func commentSuggestionsPrompt(title, content string, existing []string) string {
	var b strings.Builder
	for _, e := range existing {
		fmt.Fprintf(&b, "- %q\n", truncateRunes(e, existingBodyLimit))
	}
	if b.Len() == 0 {
		b.WriteString("(no comments yet)\n")
	}

	return fmt.Sprintf(`Suggest 3 thoughtful comments that would move this discussion forward.

Topic title: %q
Topic content: %q

Existing comments:
%s
Avoid repeating points already made. Return a JSON array of 3 strings.`,
		title, content, b.String())
}

func replySuggestionsPrompt(comment, title, content string) string {
	return fmt.Sprintf(`Suggest 3 constructive replies to this comment.

Topic title: %q
Topic content: %q
Comment: %q

Replies should be respectful and add to the discussion. Return a JSON array of 3 strings.`,
		title, content, comment)
}

func enhanceCommentPrompt(comment, title string) string {
	return fmt.Sprintf(`Improve the clarity and tone of this comment while keeping its meaning and the author's voice.

Topic title: %q
Comment: %q

Return only the improved comment text, nothing else.`,
		title, comment)
}

func enhanceTopicPrompt(title, content, category string) string {
	if strings.TrimSpace(content) == "" {
		return fmt.Sprintf(`Generate a precise, engaging description for this topic based on the title and category.

Title: %q
Category: %q

Write 2-3 direct, factual sentences that explain the core issue or question.
If the title is a question, frame the description as a discussion starter.
Return only the generated description, nothing else.`,
			title, category)
	}

	return fmt.Sprintf(`Create a precise, concise description for this topic.

Title: %q
Category: %q
Content: %q

Use at most 2-3 sentences in clear, simple language. Remove filler and marketing language.
Return only the enhanced description, nothing else.`,
		title, category, content)
}

func topicSuggestionsPrompt(title, content string) string {
	return fmt.Sprintf(`Analyze this forum topic and provide 3-4 specific, actionable suggestions to improve it.

Title: %q
Content: %q

Focus on clarity, missing context, structure and how discussion-friendly it is.
Return a JSON array of strings. Each suggestion is one short sentence starting with an action word
(e.g. "Add", "Clarify", "Include", "Specify").`,
		title, content)
}
