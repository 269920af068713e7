package handlers

import (
	"net/http"

	apierrors "github.com/pribylovaa/sabha/internal/errors"
	"github.com/pribylovaa/sabha/internal/models"
)

type reactRequest struct {
	Type string `json:"type" validate:"required,oneof=like dislike love angry sad laugh upvote downvote"`
}

func (h *Handlers) ReactionSummary(w http.ResponseWriter, r *http.Request) {
	postID, err := pathID(r, "id")
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	summary, err := h.svc.ReactionSummary(r.Context(), postID)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// React переключает реакцию: новая реакция: 201, снятие или смена: 200.
func (h *Handlers) React(w http.ResponseWriter, r *http.Request) {
	postID, err := pathID(r, "id")
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	var in reactRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	res, err := h.svc.React(r.Context(), postID, currentUser(r), models.ReactionType(in.Type))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	status := http.StatusOK
	if res.Action == models.ReactionAdded {
		status = http.StatusCreated
	}

	writeJSON(w, status, res)
}

func (h *Handlers) RemoveReaction(w http.ResponseWriter, r *http.Request) {
	postID, err := pathID(r, "id")
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	if err := h.svc.RemoveReaction(r.Context(), postID, currentUser(r)); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
