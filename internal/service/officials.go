package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pribylovaa/sabha/internal/models"
	"github.com/pribylovaa/sabha/internal/pkg/log"
	"github.com/pribylovaa/sabha/internal/pkg/redact"
)

// CreateOfficialInput: добавление официального лица в справочник.
type CreateOfficialInput struct {
	Name          string
	Title         string
	Organization  string
	Governance    models.Governance
	Location      string
	TwitterHandle string
	Email         string
	Phone         string
}

// ListOfficials ищет официальных лиц; верифицированные идут первыми.
func (s *Service) ListOfficials(ctx context.Context, filter models.OfficialFilter) ([]models.Official, error) {
	const op = "service/officials/ListOfficials"

	lg := log.From(ctx).With("op", op)

	if filter.Governance != "" && !filter.Governance.Valid() {
		lg.Warn("invalid argument: bad governance", "governance", string(filter.Governance))
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	filter.Name = strings.TrimSpace(filter.Name)
	filter.Location = strings.TrimSpace(filter.Location)

	items, err := s.storage.ListOfficials(ctx, filter)
	if err != nil {
		lg.Error("storage error on ListOfficials", "err", err)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	return items, nil
}

// CreateOfficial сохраняет официальное лицо (изначально не верифицировано).
func (s *Service) CreateOfficial(ctx context.Context, actorID uuid.UUID, in CreateOfficialInput) (*models.Official, error) {
	const op = "service/officials/CreateOfficial"

	lg := log.From(ctx).With("op", op, "actor_id", actorID.String())

	if actorID == uuid.Nil {
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	o := &models.Official{
		ID:            uuid.New(),
		Name:          strings.TrimSpace(in.Name),
		Title:         strings.TrimSpace(in.Title),
		Organization:  strings.TrimSpace(in.Organization),
		Governance:    in.Governance,
		Location:      strings.TrimSpace(in.Location),
		TwitterHandle: strings.TrimPrefix(strings.TrimSpace(in.TwitterHandle), "@"),
		Email:         strings.TrimSpace(in.Email),
		Phone:         strings.TrimSpace(in.Phone),
	}

	if o.Name == "" || o.Title == "" || o.Organization == "" || !o.Governance.Valid() {
		lg.Warn("invalid argument: missing required official fields")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	if o.Governance == models.GovernanceLocal && o.Location == "" {
		lg.Warn("invalid argument: local official without location")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	if o.Email != "" {
		if _, err := validateEmail(o.Email); err != nil {
			lg.Warn("invalid argument: bad official email", "email", redact.Email(o.Email))
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
		}
	}

	now := time.Now().UTC()
	o.CreatedAt, o.UpdatedAt = now, now

	if err := s.storage.CreateOfficial(ctx, o); err != nil {
		lg.Error("storage error on CreateOfficial", "err", err)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	return o, nil
}
