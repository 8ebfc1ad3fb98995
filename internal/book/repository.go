package book

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ialame/maison-edition/internal/logger"

	"go.uber.org/zap"
)

var ErrBookNotFound = errors.New("book not found")

type Repository interface {
	GetByID(ctx context.Context, id uint) (*Book, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByID(ctx context.Context, id uint) (*Book, error) {
	var b Book
	err := r.db.QueryRowContext(ctx, `
		SELECT id, title, author, cover_url, published, price_cents, created_at, updated_at
		FROM books
		WHERE id = $1
	`, id).Scan(
		&b.ID,
		&b.Title,
		&b.Author,
		&b.CoverURL,
		&b.Published,
		&b.PriceCents,
		&b.CreatedAt,
		&b.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookNotFound
	}
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to fetch book",
			zap.Uint("book_id", id),
			zap.Error(err),
		)
		return nil, err
	}

	return &b, nil
}
