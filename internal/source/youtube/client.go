package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/googleapi/transport"
	"google.golang.org/api/option"
	ytapi "google.golang.org/api/youtube/v3"

	"video_fetcher/internal/domain"
)

const (
	SourceID   = "youtube"
	SourceName = "YouTube Data API v3"

	DefaultBaseURL = "https://www.googleapis.com/"
)

// Config holds YouTube client configuration.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	// Transport overrides the base round tripper. Nil uses http.DefaultTransport.
	Transport http.RoundTripper
}

// Client fetches video metadata and search results from the YouTube Data API.
type Client struct {
	service *ytapi.Service
	logger  *slog.Logger
}

// New creates a new YouTube client. The API key is attached to every request
// as the "key" query parameter.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("youtube api key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}

	base := cfg.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	httpClient := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: &transport.APIKey{Key: cfg.APIKey, Transport: base},
	}

	service, err := ytapi.NewService(ctx,
		option.WithHTTPClient(httpClient),
		option.WithEndpoint(cfg.BaseURL),
	)
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}

	return &Client{
		service: service,
		logger:  logger.With("source", SourceID),
	}, nil
}

// ID returns the source identifier.
func (c *Client) ID() string {
	return SourceID
}

// Name returns human-readable name.
func (c *Client) Name() string {
	return SourceName
}

// FetchMetadata requests the snippet and content details of exactly one video.
func (c *Client) FetchMetadata(ctx context.Context, videoID string) (*domain.Video, error) {
	resp, err := c.service.Videos.
		List([]string{"snippet", "contentDetails"}).
		Id(videoID).
		Context(ctx).
		Do()
	if err != nil {
		return nil, classify("list videos", err)
	}

	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("video %q: %w", videoID, domain.ErrNotFound)
	}

	video, err := transform(videoID, resp.Items[0])
	if err != nil {
		return nil, fmt.Errorf("video %q: %w", videoID, err)
	}

	c.logger.Debug("fetched video metadata",
		"video_id", videoID,
		"channel_id", video.ChannelID,
	)

	return video, nil
}

// SearchVideos returns the identifiers of videos matching query, in the
// order the platform ranks them. Only the platform's default first page is read.
func (c *Client) SearchVideos(ctx context.Context, query string) ([]string, error) {
	resp, err := c.service.Search.
		List([]string{"id"}).
		Type("video").
		Q(query).
		Context(ctx).
		Do()
	if err != nil {
		return nil, classify("search videos", err)
	}

	ids := make([]string, 0, len(resp.Items))
	for i, item := range resp.Items {
		if item.Id == nil {
			return nil, fmt.Errorf("search item %d has no id: %w", i, domain.ErrMalformedResponse)
		}
		ids = append(ids, item.Id.VideoId)
	}

	c.logger.Debug("searched videos", "query", query, "results", len(ids))

	return ids, nil
}

func transform(videoID string, item *ytapi.Video) (*domain.Video, error) {
	if item.Snippet == nil {
		return nil, fmt.Errorf("missing snippet: %w", domain.ErrMalformedResponse)
	}
	if item.ContentDetails == nil {
		return nil, fmt.Errorf("missing contentDetails: %w", domain.ErrMalformedResponse)
	}
	if item.Snippet.Thumbnails == nil || item.Snippet.Thumbnails.Default == nil {
		return nil, fmt.Errorf("missing default thumbnail: %w", domain.ErrMalformedResponse)
	}

	return &domain.Video{
		VideoID:      videoID,
		Title:        item.Snippet.Title,
		PublishedAt:  item.Snippet.PublishedAt,
		ThumbnailURL: item.Snippet.Thumbnails.Default.Url,
		ChannelID:    item.Snippet.ChannelId,
		Duration:     item.ContentDetails.Duration,
	}, nil
}

func classify(op string, err error) error {
	var (
		apiErr    *googleapi.Error
		urlErr    *url.Error
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", op, err)
	case errors.As(err, &urlErr):
		return fmt.Errorf("%s: %w: %w", op, domain.ErrNetworkFailure, err)
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr),
		errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return fmt.Errorf("%s: %w: %w", op, domain.ErrMalformedResponse, err)
	case errors.As(err, &apiErr):
		return fmt.Errorf("%s: %w: status %d: %w", op, domain.ErrNetworkFailure, apiErr.Code, err)
	default:
		return fmt.Errorf("%s: %w: %w", op, domain.ErrNetworkFailure, err)
	}
}
