package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"video_fetcher/internal/domain"
)

type VideoStore struct {
	db *sqlx.DB
}

func NewVideoStore(db *sqlx.DB) *VideoStore {
	return &VideoStore{db: db}
}

// FindByID returns the stored video or nil when no row matches.
// The transcript is cut to its first domain.TranscriptPreviewLen characters by the query.
func (s *VideoStore) FindByID(ctx context.Context, videoID string) (*domain.Video, error) {
	query := fmt.Sprintf(`
		SELECT
			video_id,
			title,
			published_at,
			thumbnail_url,
			channel_id,
			duration,
			left(transcript, %d) AS transcript,
			market_sentiment
		FROM youtube_videos
		WHERE video_id = $1`, domain.TranscriptPreviewLen)

	var video domain.Video
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &video, query, videoID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("select video", err)
	}
	return &video, nil
}

// InsertIfAbsent writes the API-derived columns of video. An existing row
// with the same video_id is left untouched and no error is returned.
func (s *VideoStore) InsertIfAbsent(ctx context.Context, video *domain.Video) error {
	query := `
		INSERT INTO youtube_videos (
			video_id, title, published_at, thumbnail_url, channel_id, duration
		) VALUES (
			$1, $2, $3, $4, $5, $6
		)
		ON CONFLICT (video_id) DO NOTHING`

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, query,
		video.VideoID,
		video.Title,
		video.PublishedAt,
		video.ThumbnailURL,
		video.ChannelID,
		video.Duration,
	)
	if err != nil {
		return classify("insert video", err)
	}
	return nil
}

// ListIdentifiers returns one page of stored video identifiers ordered by video_id.
func (s *VideoStore) ListIdentifiers(ctx context.Context, page domain.Page) ([]string, error) {
	page = page.Normalize()

	query := `
		SELECT video_id
		FROM youtube_videos
		ORDER BY video_id
		LIMIT $1
		OFFSET $2`

	ids := make([]string, 0, page.Limit)
	if err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &ids, query, page.Limit, page.Offset); err != nil {
		return nil, classify("list video ids", err)
	}
	return ids, nil
}

// classify marks everything that is neither a server-side error nor a
// context cancellation as domain.ErrStoreUnavailable.
func classify(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fmt.Errorf("%s: %s: %w", op, pqErr.Code.Name(), err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
}
