package handlers

import (
	"net/http"
	"strconv"

	apierrors "github.com/pribylovaa/sabha/internal/errors"
	"github.com/pribylovaa/sabha/internal/models"
	"github.com/pribylovaa/sabha/internal/service"
)

type createOfficialRequest struct {
	Name          string `json:"name"            validate:"required,max=200"`
	Title         string `json:"title"           validate:"required,max=200"`
	Organization  string `json:"organization"    validate:"required,max=200"`
	Governance    string `json:"governanceLevel" validate:"required,oneof=national state local"`
	Location      string `json:"location"        validate:"max=200"`
	TwitterHandle string `json:"twitterHandle"   validate:"max=50"`
	Email         string `json:"email"           validate:"omitempty,email"`
	Phone         string `json:"phone"           validate:"max=30"`
}

type addTagRequest struct {
	PostID        string `json:"postId"        validate:"required,uuid"`
	OfficialTagID string `json:"officialTagId" validate:"omitempty,uuid"`
	CustomTag     string `json:"customTag"     validate:"max=50"`
}

func (h *Handlers) ListOfficials(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := models.OfficialFilter{
		Name:       q.Get("name"),
		Governance: models.Governance(q.Get("governance")),
		Location:   q.Get("location"),
	}

	if v := q.Get("verified"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			apierrors.WriteError(w, r, apierrors.InvalidArgument("verified must be a boolean"))
			return
		}
		filter.Verified = &b
	}

	items, err := h.svc.ListOfficials(r.Context(), filter)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, itemsResponse[models.Official]{Items: items})
}

func (h *Handlers) CreateOfficial(w http.ResponseWriter, r *http.Request) {
	var in createOfficialRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	official, err := h.svc.CreateOfficial(r.Context(), currentUser(r), in.toService())
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, official)
}

func (h *Handlers) ListTags(w http.ResponseWriter, r *http.Request) {
	postID, err := queryID(r, "postId")
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}
	if postID == nil {
		apierrors.WriteError(w, r, apierrors.InvalidArgument("postId is required"))
		return
	}

	items, err := h.svc.ListTags(r.Context(), *postID)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, itemsResponse[models.Tag]{Items: items})
}

func (h *Handlers) AddTag(w http.ResponseWriter, r *http.Request) {
	var in addTagRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	input := service.AddTagInput{
		PostID:    mustUUID(in.PostID),
		ActorID:   currentUser(r),
		CustomTag: in.CustomTag,
	}
	if in.OfficialTagID != "" {
		id := mustUUID(in.OfficialTagID)
		input.OfficialID = &id
	}

	tag, err := h.svc.AddTag(r.Context(), input)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, tag)
}

func (h *Handlers) RemoveTag(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	if err := h.svc.RemoveTag(r.Context(), id, currentUser(r)); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) ListCategories(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListCategories(r.Context())
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, itemsResponse[models.Category]{Items: items})
}

func (h *Handlers) ListStates(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListStates(r.Context())
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, itemsResponse[models.State]{Items: items})
}

func (h *Handlers) ListCities(w http.ResponseWriter, r *http.Request) {
	stateID, err := queryID(r, "stateId")
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}
	if stateID == nil {
		apierrors.WriteError(w, r, apierrors.InvalidArgument("stateId is required"))
		return
	}

	items, err := h.svc.ListCities(r.Context(), *stateID)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, itemsResponse[models.City]{Items: items})
}
