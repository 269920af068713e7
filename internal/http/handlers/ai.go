package handlers

import (
	"net/http"

	"github.com/google/uuid"
	apierrors "github.com/pribylovaa/sabha/internal/errors"
)

// aiCommentsRequest: тело POST /ai/comments; набор обязательных полей
// зависит от action и проверяется в AIComments.
type aiCommentsRequest struct {
	Action    string `json:"action"    validate:"required,oneof=suggestions enhance reply-suggestions moderate analyze analyze-discussion"`
	TopicID   string `json:"topicId"   validate:"omitempty,uuid"`
	CommentID string `json:"commentId" validate:"omitempty,uuid"`
	Comment   string `json:"comment"   validate:"max=5000"`
}

type aiEnhanceRequest struct {
	Action   string `json:"action"   validate:"required,oneof=enhance suggestions"`
	Title    string `json:"title"    validate:"required,max=200"`
	Content  string `json:"content"`
	Category string `json:"category" validate:"max=100"`
}

type suggestionsResponse struct {
	Suggestions []string `json:"suggestions"`
}

type enhancedCommentResponse struct {
	EnhancedComment string `json:"enhancedComment"`
}

type enhancedContentResponse struct {
	EnhancedContent string `json:"enhancedContent"`
}

// AIComments диспетчеризует AI-действия над комментариями по полю action.
func (h *Handlers) AIComments(w http.ResponseWriter, r *http.Request) {
	var in aiCommentsRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	ctx := r.Context()
	topicID := parseOptional(in.TopicID)

	needTopic := in.Action != "moderate"
	if needTopic && topicID == uuid.Nil {
		apierrors.WriteError(w, r, apierrors.InvalidArgument("topicId is required"))
		return
	}

	switch in.Action {
	case "suggestions":
		out, err := h.svc.SuggestComments(ctx, topicID)
		if err != nil {
			apierrors.WriteError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, suggestionsResponse{Suggestions: out})

	case "enhance":
		if in.Comment == "" {
			apierrors.WriteError(w, r, apierrors.InvalidArgument("comment is required"))
			return
		}
		out, err := h.svc.EnhanceComment(ctx, topicID, in.Comment)
		if err != nil {
			apierrors.WriteError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, enhancedCommentResponse{EnhancedComment: out})

	case "reply-suggestions":
		commentID := parseOptional(in.CommentID)
		if commentID == uuid.Nil {
			apierrors.WriteError(w, r, apierrors.InvalidArgument("commentId is required"))
			return
		}
		out, err := h.svc.SuggestReplies(ctx, topicID, commentID)
		if err != nil {
			apierrors.WriteError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, suggestionsResponse{Suggestions: out})

	case "moderate":
		if in.Comment == "" {
			apierrors.WriteError(w, r, apierrors.InvalidArgument("comment is required"))
			return
		}
		verdict, err := h.svc.ModerateText(ctx, in.Comment)
		if err != nil {
			apierrors.WriteError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, verdict)

	case "analyze":
		if in.Comment == "" {
			apierrors.WriteError(w, r, apierrors.InvalidArgument("comment is required"))
			return
		}
		analysis, err := h.svc.AnalyzeComment(ctx, topicID, in.Comment)
		if err != nil {
			apierrors.WriteError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, analysis)

	case "analyze-discussion":
		analysis, err := h.svc.AnalyzeDiscussion(ctx, topicID)
		if err != nil {
			apierrors.WriteError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, analysis)
	}
}

// AIEnhance улучшает описание темы или предлагает правки к нему.
func (h *Handlers) AIEnhance(w http.ResponseWriter, r *http.Request) {
	var in aiEnhanceRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	switch in.Action {
	case "enhance":
		category := in.Category
		if category == "" {
			category = "General"
		}
		out, err := h.svc.EnhanceTopic(r.Context(), in.Title, in.Content, category)
		if err != nil {
			apierrors.WriteError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, enhancedContentResponse{EnhancedContent: out})

	case "suggestions":
		if in.Content == "" {
			apierrors.WriteError(w, r, apierrors.InvalidArgument("content is required for suggestions"))
			return
		}
		out, err := h.svc.SuggestTopicImprovements(r.Context(), in.Title, in.Content)
		if err != nil {
			apierrors.WriteError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, suggestionsResponse{Suggestions: out})
	}
}

func parseOptional(s string) uuid.UUID {
	if s == "" {
		return uuid.Nil
	}
	return mustUUID(s)
}
