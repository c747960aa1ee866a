package websites

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/sitekeeper/internal/common"
	"github.com/dmitrijs2005/sitekeeper/internal/dbx"
	"github.com/dmitrijs2005/sitekeeper/internal/server/models"
)

type SQLRepository struct {
	db dbx.DBTX
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) Create(ctx context.Context, w *models.Website) (*models.Website, error) {
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO websites (user_id, name, url, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	if err := r.db.QueryRowContext(ctx, query, w.UserID, w.Name, w.URL, w.CreatedAt.Unix()).Scan(&w.ID); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return w, nil
}

func (r *SQLRepository) ListByOwner(ctx context.Context, userID int64) ([]*models.Website, error) {
	query := `
		SELECT id, user_id, name, url, created_at
		FROM websites
		WHERE user_id = $1
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Website, 0)
	for rows.Next() {
		w, err := scanWebsite(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *SQLRepository) GetByID(ctx context.Context, id int64) (*models.Website, error) {
	query := `
		SELECT id, user_id, name, url, created_at
		FROM websites
		WHERE id = $1
	`
	w, err := scanWebsite(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, err
	}
	return w, nil
}

func (r *SQLRepository) Delete(ctx context.Context, id, userID int64) (bool, error) {
	query := `
		DELETE FROM websites
		WHERE id = $1 AND user_id = $2
	`
	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanWebsite(s scanner) (*models.Website, error) {
	w := &models.Website{}
	var createdAt int64
	if err := s.Scan(&w.ID, &w.UserID, &w.Name, &w.URL, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	w.CreatedAt = time.Unix(createdAt, 0)
	return w, nil
}
