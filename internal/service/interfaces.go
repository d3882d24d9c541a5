package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"video_fetcher/internal/domain"
)

type VideoStore interface {
	FindByID(ctx context.Context, videoID string) (*domain.Video, error)
	InsertIfAbsent(ctx context.Context, video *domain.Video) error
	ListIdentifiers(ctx context.Context, page domain.Page) ([]string, error)
}

type Source interface {
	ID() string
	Name() string
	FetchMetadata(ctx context.Context, videoID string) (*domain.Video, error)
	SearchVideos(ctx context.Context, query string) ([]string, error)
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Publisher interface {
	PublishSaved(ctx context.Context, video *domain.Video) error
	Close() error
}
