package handlers

import (
	"net/http"

	"github.com/google/uuid"
	apierrors "github.com/pribylovaa/sabha/internal/errors"
	"github.com/pribylovaa/sabha/internal/models"
	"github.com/pribylovaa/sabha/internal/service"
)

type createCommentRequest struct {
	Content  string     `json:"content"  validate:"required,max=5000"`
	ParentID *uuid.UUID `json:"parentId"`
}

func (h *Handlers) ListComments(w http.ResponseWriter, r *http.Request) {
	postID, err := pathID(r, "id")
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	items, err := h.svc.ListComments(r.Context(), postID)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, itemsResponse[models.Comment]{Items: items})
}

// CreateComment проходит через гейт модерации: отказ отдаётся как
// 400/content_rejected с reason и suggestion, комментарий при этом не сохраняется.
func (h *Handlers) CreateComment(w http.ResponseWriter, r *http.Request) {
	postID, err := pathID(r, "id")
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	var in createCommentRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	comment, err := h.svc.CreateComment(r.Context(), service.CreateCommentInput{
		PostID:   postID,
		AuthorID: currentUser(r),
		ParentID: in.ParentID,
		Content:  in.Content,
	})
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, comment)
}

func (h *Handlers) DeleteComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	if err := h.svc.DeleteComment(r.Context(), id, currentUser(r)); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
