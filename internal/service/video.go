package service

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"video_fetcher/internal/config"
	"video_fetcher/internal/domain"
)

type VideoService struct {
	source    Source
	videos    VideoStore
	txManager TransactionManager
	publisher Publisher
	logger    *slog.Logger

	// lookups is nil unless concurrent misses for one video_id are coalesced.
	lookups *singleflight.Group
}

// NewVideoService wires the store and the source. publisher may be nil.
func NewVideoService(
	source Source,
	videos VideoStore,
	txManager TransactionManager,
	publisher Publisher,
	logger *slog.Logger,
	cfg config.ServiceConfig,
) *VideoService {
	s := &VideoService{
		source:    source,
		videos:    videos,
		txManager: txManager,
		publisher: publisher,
		logger:    logger.With("source", source.ID()),
	}
	if cfg.CoalesceLookups {
		s.lookups = &singleflight.Group{}
	}
	return s
}

// GetVideo returns the stored video, or on a store miss the video as
// reported by the source. Source results are not persisted; see SaveVideo.
func (s *VideoService) GetVideo(ctx context.Context, videoID string) (*domain.Video, error) {
	res, err := s.get(ctx, videoID)
	if err != nil {
		return nil, err
	}
	return res.video, nil
}

// FetchVideo is GetVideo followed by SaveVideo, except that a video already
// in the store is returned as is: it is neither saved again nor published.
func (s *VideoService) FetchVideo(ctx context.Context, videoID string) (*domain.Video, error) {
	res, err := s.get(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if res.stored {
		return res.video, nil
	}
	if err := s.SaveVideo(ctx, res.video); err != nil {
		return nil, err
	}
	return res.video, nil
}

type lookupResult struct {
	video  *domain.Video
	stored bool
}

func (s *VideoService) get(ctx context.Context, videoID string) (lookupResult, error) {
	if s.lookups == nil {
		return s.lookup(ctx, videoID)
	}

	// The first caller's ctx governs the shared lookup.
	v, err, shared := s.lookups.Do(videoID, func() (any, error) {
		return s.lookup(ctx, videoID)
	})
	if err != nil {
		return lookupResult{}, err
	}

	res := v.(lookupResult)
	if shared {
		cp := *res.video
		res.video = &cp
	}
	return res, nil
}

func (s *VideoService) lookup(ctx context.Context, videoID string) (lookupResult, error) {
	video, err := s.videos.FindByID(ctx, videoID)
	if err != nil {
		return lookupResult{}, fmt.Errorf("find video: %w", err)
	}
	if video != nil {
		s.logger.Debug("video found in store", "video_id", videoID)
		return lookupResult{video: video, stored: true}, nil
	}

	s.logger.Debug("video not in store, fetching from source", "video_id", videoID)

	video, err = s.source.FetchMetadata(ctx, videoID)
	if err != nil {
		return lookupResult{}, fmt.Errorf("fetch video metadata: %w", err)
	}

	s.logger.Info("fetched video from source",
		"video_id", videoID,
		"source_name", s.source.Name(),
	)
	return lookupResult{video: video}, nil
}

// SaveVideo inserts video unless a row with the same video_id exists.
// Existing rows are never modified.
func (s *VideoService) SaveVideo(ctx context.Context, video *domain.Video) error {
	if err := validate(video); err != nil {
		return err
	}

	if err := s.videos.InsertIfAbsent(ctx, video); err != nil {
		return fmt.Errorf("save video: %w", err)
	}

	s.publishSaved(ctx, video)
	return nil
}

// SaveVideos inserts all videos in one transaction with SaveVideo's
// insert-or-ignore semantics. Either every insert is applied or none.
func (s *VideoService) SaveVideos(ctx context.Context, videos []domain.Video) error {
	for i := range videos {
		if err := validate(&videos[i]); err != nil {
			return fmt.Errorf("video %d: %w", i, err)
		}
	}
	if len(videos) == 0 {
		return nil
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		for i := range videos {
			if err := s.videos.InsertIfAbsent(txCtx, &videos[i]); err != nil {
				return fmt.Errorf("save video %q: %w", videos[i].VideoID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("saved videos", "count", len(videos))

	for i := range videos {
		s.publishSaved(ctx, &videos[i])
	}
	return nil
}

// ListVideoIDs pages through stored video identifiers. Zero or negative
// arguments fall back to offset 0 and limit 10.
func (s *VideoService) ListVideoIDs(ctx context.Context, offset, limit int) ([]string, error) {
	ids, err := s.videos.ListIdentifiers(ctx, domain.Page{Offset: offset, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("list video ids: %w", err)
	}
	return ids, nil
}

// SearchVideos forwards query to the source and returns matching video identifiers.
func (s *VideoService) SearchVideos(ctx context.Context, query string) ([]string, error) {
	ids, err := s.source.SearchVideos(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search videos: %w", err)
	}
	return ids, nil
}

func (s *VideoService) publishSaved(ctx context.Context, video *domain.Video) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishSaved(ctx, video); err != nil {
		s.logger.Warn("failed to publish saved video",
			"video_id", video.VideoID,
			"error", err,
		)
	}
}

func validate(video *domain.Video) error {
	if video == nil {
		return fmt.Errorf("%w: nil video", domain.ErrInvalidVideo)
	}
	if video.VideoID == "" {
		return fmt.Errorf("%w: empty video_id", domain.ErrInvalidVideo)
	}
	return nil
}
