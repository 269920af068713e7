package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	apierrors "github.com/pribylovaa/sabha/internal/errors"
	"github.com/pribylovaa/sabha/internal/models"
)

type createPostRequest struct {
	Title      string     `json:"title"           validate:"required,max=200"`
	Content    string     `json:"content"         validate:"required"`
	PostType   string     `json:"postType"        validate:"required,oneof=issue feedback suggestion"`
	Priority   string     `json:"priorityLevel"   validate:"omitempty,oneof=low medium high"`
	Governance string     `json:"governanceLevel" validate:"required,oneof=national state local"`
	Location   string     `json:"location"        validate:"max=200"`
	Deadline   *time.Time `json:"deadline"`
	CategoryID *uuid.UUID `json:"categoryId"`
}

type updatePostRequest struct {
	Title            *string    `json:"title"            validate:"omitempty,max=200"`
	Content          *string    `json:"content"`
	Priority         *string    `json:"priorityLevel"    validate:"omitempty,oneof=low medium high"`
	Status           *string    `json:"status"           validate:"omitempty,oneof=open in_review acknowledged resolved rejected"`
	Location         *string    `json:"location"         validate:"omitempty,max=200"`
	Deadline         *time.Time `json:"deadline"`
	ClearDeadline    bool       `json:"clearDeadline"`
	OfficialResponse *string    `json:"officialResponse"`
}

type itemsResponse[T any] struct {
	Items []T `json:"items"`
}

func (h *Handlers) ListPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	pageSize, err := queryInt32(r, "page_size")
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	categoryID, err := queryID(r, "categoryId")
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	filter := models.PostFilter{
		Type:       models.PostType(q.Get("type")),
		Priority:   models.Priority(q.Get("priority")),
		Governance: models.Governance(q.Get("governance")),
		Status:     models.PostStatus(q.Get("status")),
		Location:   q.Get("location"),
		CategoryID: categoryID,
		PageSize:   pageSize,
		PageToken:  q.Get("page_token"),
	}

	page, err := h.svc.ListPosts(r.Context(), filter)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

func (h *Handlers) CreatePost(w http.ResponseWriter, r *http.Request) {
	var in createPostRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	post, err := h.svc.CreatePost(r.Context(), in.toService(currentUser(r)))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, post)
}

func (h *Handlers) GetPost(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	post, err := h.svc.GetPost(r.Context(), id)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, post)
}

func (h *Handlers) UpdatePost(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	var in updatePostRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	post, err := h.svc.UpdatePost(r.Context(), in.toService(id, currentUser(r)))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, post)
}

func (h *Handlers) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	if err := h.svc.DeletePost(r.Context(), id, currentUser(r)); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
