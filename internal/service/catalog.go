package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pribylovaa/sabha/internal/models"
	"github.com/pribylovaa/sabha/internal/pkg/log"
)

// ListCategories возвращает активные категории по алфавиту.
func (s *Service) ListCategories(ctx context.Context) ([]models.Category, error) {
	const op = "service/catalog/ListCategories"

	items, err := s.storage.ListCategories(ctx)
	if err != nil {
		log.From(ctx).Error("storage error on ListCategories", "op", op, "err", err)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	return items, nil
}

// ListStates возвращает активные штаты по алфавиту.
func (s *Service) ListStates(ctx context.Context) ([]models.State, error) {
	const op = "service/catalog/ListStates"

	items, err := s.storage.ListStates(ctx)
	if err != nil {
		log.From(ctx).Error("storage error on ListStates", "op", op, "err", err)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	return items, nil
}

// ListCities возвращает активные города штата; stateID обязателен.
func (s *Service) ListCities(ctx context.Context, stateID uuid.UUID) ([]models.City, error) {
	const op = "service/catalog/ListCities"

	lg := log.From(ctx).With("op", op, "state_id", stateID.String())

	if stateID == uuid.Nil {
		lg.Warn("invalid argument: empty state_id")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	items, err := s.storage.ListCities(ctx, stateID)
	if err != nil {
		lg.Error("storage error on ListCities", "err", err)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	return items, nil
}
