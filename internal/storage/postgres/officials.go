package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pribylovaa/sabha/internal/models"
	"github.com/pribylovaa/sabha/internal/storage"
)

const officialColumns = `
	o.id, o.name, o.title, o.organization, o.governance_level, COALESCE(o.location, ''),
	COALESCE(o.twitter_handle, ''), COALESCE(o.email, ''), COALESCE(o.phone, ''),
	o.is_verified, o.verified_at, o.created_at, o.updated_at`

func scanOfficial(row pgx.Row) (models.Official, error) {
	var o models.Official
	err := row.Scan(
		&o.ID,
		&o.Name,
		&o.Title,
		&o.Organization,
		&o.Governance,
		&o.Location,
		&o.TwitterHandle,
		&o.Email,
		&o.Phone,
		&o.IsVerified,
		&o.VerifiedAt,
		&o.CreatedAt,
		&o.UpdatedAt,
	)

	return o, err
}

// ListOfficials ищет официальных лиц по фильтру.
// Порядок: верифицированные первыми, затем более новые.
func (s *Storage) ListOfficials(ctx context.Context, filter models.OfficialFilter) ([]models.Official, error) {
	const op = "storage.postgres.ListOfficials"

	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.Name != "" {
		add("o.name ILIKE '%%' || $%d || '%%'", filter.Name)
	}
	if filter.Governance != "" {
		add("o.governance_level = $%d", string(filter.Governance))
	}
	if filter.Location != "" {
		add("o.location ILIKE '%%' || $%d || '%%'", filter.Location)
	}
	if filter.Verified != nil {
		add("o.is_verified = $%d", *filter.Verified)
	}

	query := `SELECT ` + officialColumns + ` FROM officials o`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY o.is_verified DESC, o.created_at DESC`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	items := make([]models.Official, 0)
	for rows.Next() {
		o, scanErr := scanOfficial(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("%s: scan row: %w", op, scanErr)
		}

		items = append(items, o)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, rows.Err())
	}

	return items, nil
}

// CreateOfficial сохраняет новое официальное лицо.
func (s *Storage) CreateOfficial(ctx context.Context, official *models.Official) error {
	const op = "storage.postgres.CreateOfficial"

	_, err := s.db.Exec(ctx, `
		INSERT INTO officials(id, name, title, organization, governance_level, location,
			twitter_handle, email, phone, is_verified, verified_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, ''),
			$10, $11, $12, $13)
	`,
		official.ID,
		official.Name,
		official.Title,
		official.Organization,
		string(official.Governance),
		official.Location,
		official.TwitterHandle,
		official.Email,
		official.Phone,
		official.IsVerified,
		official.VerifiedAt,
		official.CreatedAt,
		official.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// OfficialByID возвращает официальное лицо по ID.
func (s *Storage) OfficialByID(ctx context.Context, id uuid.UUID) (*models.Official, error) {
	const op = "storage.postgres.OfficialByID"

	o, err := scanOfficial(s.db.QueryRow(ctx, `SELECT `+officialColumns+` FROM officials o WHERE o.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &o, nil
}
