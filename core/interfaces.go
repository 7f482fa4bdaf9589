//go:generate go run go.uber.org/mock/mockgen -source=interfaces.go -destination=mock/services.go
package core

import (
	"context"
)

type CharacterService interface {
	Create(ctx context.Context, input CharacterInput) (Character, error)
	List(ctx context.Context) ([]Character, error)
	Get(ctx context.Context, id uint64) (Character, error)
	Update(ctx context.Context, id uint64, input CharacterInput) (Character, error)
	Delete(ctx context.Context, id uint64) error
	Count(ctx context.Context) (int64, error)
}
