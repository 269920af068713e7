package handlers

import (
	"github.com/google/uuid"
	"github.com/pribylovaa/sabha/internal/models"
	"github.com/pribylovaa/sabha/internal/service"
)

// Конвертеры HTTP DTO -> входы сервисного слоя.

func serviceAvatarURLInput(uid uuid.UUID, in presignRequest) service.AvatarUploadURLInput {
	return service.AvatarUploadURLInput{
		UserID:        uid,
		ContentType:   in.ContentType,
		ContentLength: in.ContentLength,
	}
}

func serviceConfirmInput(uid uuid.UUID, in confirmRequest) service.ConfirmAvatarUploadInput {
	return service.ConfirmAvatarUploadInput{
		UserID:    uid,
		AvatarKey: in.AvatarKey,
	}
}

func (in createPostRequest) toService(author uuid.UUID) service.CreatePostInput {
	return service.CreatePostInput{
		AuthorID:   author,
		Title:      in.Title,
		Content:    in.Content,
		PostType:   models.PostType(in.PostType),
		Priority:   models.Priority(in.Priority),
		Governance: models.Governance(in.Governance),
		Location:   in.Location,
		Deadline:   in.Deadline,
		CategoryID: in.CategoryID,
	}
}

func (in updatePostRequest) toService(id, actor uuid.UUID) service.UpdatePostInput {
	out := service.UpdatePostInput{
		ID:               id,
		ActorID:          actor,
		Title:            in.Title,
		Content:          in.Content,
		Location:         in.Location,
		Deadline:         in.Deadline,
		ClearDeadline:    in.ClearDeadline,
		OfficialResponse: in.OfficialResponse,
	}

	if in.Priority != nil {
		p := models.Priority(*in.Priority)
		out.Priority = &p
	}
	if in.Status != nil {
		s := models.PostStatus(*in.Status)
		out.Status = &s
	}

	return out
}

func (in createOfficialRequest) toService() service.CreateOfficialInput {
	return service.CreateOfficialInput{
		Name:          in.Name,
		Title:         in.Title,
		Organization:  in.Organization,
		Governance:    models.Governance(in.Governance),
		Location:      in.Location,
		TwitterHandle: in.TwitterHandle,
		Email:         in.Email,
		Phone:         in.Phone,
	}
}

// mustUUID разбирает строку, уже проверенную тегом validate:"uuid".
func mustUUID(s string) uuid.UUID {
	id, _ := uuid.Parse(s)
	return id
}
