package repository

import (
	"context"

	"lostfound/internal/domain/entity"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	// GetByID returns a NOT_FOUND AppError when the document does not exist.
	GetByID(ctx context.Context, id string) (*entity.User, error)
}
