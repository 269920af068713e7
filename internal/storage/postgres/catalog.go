package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pribylovaa/sabha/internal/models"
)

// ListCategories возвращает активные категории по алфавиту.
func (s *Storage) ListCategories(ctx context.Context) ([]models.Category, error) {
	const op = "storage.postgres.ListCategories"

	rows, err := s.db.Query(ctx, `
		SELECT id, name, COALESCE(description, ''), COALESCE(color, ''), COALESCE(icon, '')
		FROM categories
		WHERE is_active
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	items := make([]models.Category, 0)
	for rows.Next() {
		var c models.Category
		if scanErr := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Color, &c.Icon); scanErr != nil {
			return nil, fmt.Errorf("%s: scan row: %w", op, scanErr)
		}

		items = append(items, c)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, rows.Err())
	}

	return items, nil
}

// ListStates возвращает активные штаты и территории по алфавиту.
func (s *Storage) ListStates(ctx context.Context) ([]models.State, error) {
	const op = "storage.postgres.ListStates"

	rows, err := s.db.Query(ctx, `
		SELECT id, name, code, type
		FROM states
		WHERE is_active
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	items := make([]models.State, 0)
	for rows.Next() {
		var st models.State
		if scanErr := rows.Scan(&st.ID, &st.Name, &st.Code, &st.Type); scanErr != nil {
			return nil, fmt.Errorf("%s: scan row: %w", op, scanErr)
		}

		items = append(items, st)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, rows.Err())
	}

	return items, nil
}

// ListCities возвращает активные города штата по алфавиту.
func (s *Storage) ListCities(ctx context.Context, stateID uuid.UUID) ([]models.City, error) {
	const op = "storage.postgres.ListCities"

	rows, err := s.db.Query(ctx, `
		SELECT c.id, c.name, c.type, c.is_capital, st.name
		FROM cities c
		JOIN states st ON st.id = c.state_id
		WHERE c.state_id = $1 AND c.is_active
		ORDER BY c.name
	`, stateID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	items := make([]models.City, 0)
	for rows.Next() {
		var c models.City
		if scanErr := rows.Scan(&c.ID, &c.Name, &c.Type, &c.IsCapital, &c.StateName); scanErr != nil {
			return nil, fmt.Errorf("%s: scan row: %w", op, scanErr)
		}

		items = append(items, c)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, rows.Err())
	}

	return items, nil
}
