package savings

import "context"

type Repository interface {
	Create(ctx context.Context, entry Entry) (*Entry, error)
	Update(ctx context.Context, entry Entry) (*Entry, error)
	Delete(ctx context.Context, id, userID string) error
	Get(ctx context.Context, id, userID string) (*Entry, error)
	ListByUser(ctx context.Context, userID string) ([]Entry, error)
	CountByUser(ctx context.Context, userID string) (int, error)
}
