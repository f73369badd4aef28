package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	apperrors "tinylink/internal/errors"
	"tinylink/internal/model"
)

type PostgresLinkRepository struct {
	db *sql.DB
}

func NewPostgresLinkRepository(db *sql.DB) LinkRepository {
	return &PostgresLinkRepository{
		db: db,
	}
}

// Create вставляет новую ссылку. Уникальность кода решает констрейнт в БД:
// проверка существования до вставки - только быстрый путь, не гарантия.
func (r *PostgresLinkRepository) Create(ctx context.Context, link *model.Link) error {
	query := `
	INSERT INTO links (code, target_url, created_at)
	VALUES ($1, $2, $3)
	ON CONFLICT (code) DO NOTHING
	RETURNING id
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		link.Code,
		link.TargetURL,
		link.CreatedAt,
	).Scan(&link.ID)

	if errors.Is(err, sql.ErrNoRows) {
		// Констрейнт сработал - код уже занят
		return apperrors.ErrCodeExists
	}

	if err != nil {
		return apperrors.NewBusinessError(apperrors.CodeInternal, "failed to create link", err)
	}

	return nil
}

func (r *PostgresLinkRepository) GetByCode(ctx context.Context, code string) (*model.Link, error) {
	query := `
	SELECT id, code, target_url, clicks, last_clicked, created_at
	FROM links
	WHERE code = $1
	`

	link := &model.Link{}
	err := r.db.QueryRowContext(ctx, query, code).Scan(
		&link.ID,
		&link.Code,
		&link.TargetURL,
		&link.Clicks,
		&link.LastClicked,
		&link.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("link with code '%s': %w", code, apperrors.ErrLinkNotFound)
	}

	if err != nil {
		return nil, apperrors.NewBusinessError(apperrors.CodeInternal, "failed to get link", err)
	}

	return link, nil
}

// List возвращает все ссылки, новые первыми
func (r *PostgresLinkRepository) List(ctx context.Context) ([]*model.Link, error) {
	query := `
	SELECT id, code, target_url, clicks, last_clicked, created_at
	FROM links
	ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.NewBusinessError(apperrors.CodeInternal, "failed to list links", err)
	}
	defer rows.Close()

	links := make([]*model.Link, 0)
	for rows.Next() {
		link := &model.Link{}
		if err := rows.Scan(
			&link.ID,
			&link.Code,
			&link.TargetURL,
			&link.Clicks,
			&link.LastClicked,
			&link.CreatedAt,
		); err != nil {
			return nil, apperrors.NewBusinessError(apperrors.CodeInternal, "failed to scan link", err)
		}
		links = append(links, link)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewBusinessError(apperrors.CodeInternal, "failed to iterate links", err)
	}

	return links, nil
}

func (r *PostgresLinkRepository) Delete(ctx context.Context, code string) error {
	query := `DELETE FROM links WHERE code = $1`

	result, err := r.db.ExecContext(ctx, query, code)
	if err != nil {
		return apperrors.NewBusinessError(apperrors.CodeInternal, "failed to delete link", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewBusinessError(apperrors.CodeInternal, "failed to check delete result", err)
	}

	if affected == 0 {
		return fmt.Errorf("link with code '%s': %w", code, apperrors.ErrLinkNotFound)
	}

	return nil
}

func (r *PostgresLinkRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM links WHERE code = $1)`

	var exists bool
	err := r.db.QueryRowContext(ctx, query, code).Scan(&exists)
	if err != nil {
		return false, apperrors.NewBusinessError(apperrors.CodeInternal, "failed to check code existence", err)
	}

	return exists, nil
}

// RecordClick атомарно увеличивает счетчик и обновляет время последнего клика.
// Возвращает обновленную запись, чтобы редирект обошелся одним запросом к БД.
func (r *PostgresLinkRepository) RecordClick(ctx context.Context, code string) (*model.Link, error) {
	query := `
	UPDATE links
	SET clicks = clicks + 1, last_clicked = now()
	WHERE code = $1
	RETURNING id, code, target_url, clicks, last_clicked, created_at
	`

	link := &model.Link{}
	err := r.db.QueryRowContext(ctx, query, code).Scan(
		&link.ID,
		&link.Code,
		&link.TargetURL,
		&link.Clicks,
		&link.LastClicked,
		&link.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("link with code '%s': %w", code, apperrors.ErrLinkNotFound)
	}

	if err != nil {
		return nil, apperrors.NewBusinessError(apperrors.CodeInternal, "failed to record click", err)
	}

	return link, nil
}
