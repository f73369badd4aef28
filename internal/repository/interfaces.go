package repository

import (
	"context"

	"tinylink/internal/model"
)

type LinkRepository interface {
	Create(ctx context.Context, link *model.Link) error
	GetByCode(ctx context.Context, code string) (*model.Link, error)
	List(ctx context.Context) ([]*model.Link, error)
	Delete(ctx context.Context, code string) error
	ExistsByCode(ctx context.Context, code string) (bool, error)
	RecordClick(ctx context.Context, code string) (*model.Link, error)
}
