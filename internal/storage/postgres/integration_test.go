//go:build integration

package postgres

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"video_fetcher/internal/domain"
	"video_fetcher/internal/testutil"
)

type PostgresIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container *postgres.PostgresContainer
	db        *sqlx.DB
}

func (s *PostgresIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()

	migrationsPath, err := filepath.Abs("../../../migrations")
	s.Require().NoError(err)

	container, err := postgres.Run(s.ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test_db"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		postgres.WithInitScripts(
			filepath.Join(migrationsPath, "001_create_youtube_videos.up.sql"),
		),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	connStr, err := container.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)

	db, err := sqlx.Connect("postgres", connStr)
	s.Require().NoError(err)
	s.db = db
}

func (s *PostgresIntegrationSuite) TearDownSuite() {
	if s.db != nil {
		s.db.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *PostgresIntegrationSuite) SetupTest() {
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM youtube_videos")
}

func TestPostgresIntegrationSuite(t *testing.T) {
	suite.Run(t, new(PostgresIntegrationSuite))
}

func (s *PostgresIntegrationSuite) TestVideoStore_InsertAndFind() {
	store := NewVideoStore(s.db)

	video := &domain.Video{
		VideoID:      "zzz999",
		Title:        "New",
		PublishedAt:  "2024-01-01T00:00:00Z",
		ThumbnailURL: "http://x/y.jpg",
		ChannelID:    "ch1",
		Duration:     "PT3M",
	}
	s.Require().NoError(store.InsertIfAbsent(s.ctx, video))

	found, err := store.FindByID(s.ctx, "zzz999")
	s.Require().NoError(err)
	s.Equal(video, found)
}

func (s *PostgresIntegrationSuite) TestVideoStore_FindMissing() {
	store := NewVideoStore(s.db)

	found, err := store.FindByID(s.ctx, "missing")
	s.NoError(err)
	s.Nil(found)
}

func (s *PostgresIntegrationSuite) TestVideoStore_InsertIfAbsent_KeepsFirstRow() {
	store := NewVideoStore(s.db)

	first := &domain.Video{VideoID: "abc123", Title: "Test", Duration: "PT5M"}
	s.Require().NoError(store.InsertIfAbsent(s.ctx, first))

	second := &domain.Video{VideoID: "abc123", Title: "Changed", Duration: "PT9M", ChannelID: "other"}
	s.Require().NoError(store.InsertIfAbsent(s.ctx, second))

	var count int
	s.Require().NoError(s.db.GetContext(s.ctx, &count, "SELECT COUNT(*) FROM youtube_videos WHERE video_id = $1", "abc123"))
	s.Equal(1, count)

	found, err := store.FindByID(s.ctx, "abc123")
	s.Require().NoError(err)
	s.Equal("Test", found.Title)
	s.Equal("PT5M", found.Duration)
	s.Empty(found.ChannelID)
}

func (s *PostgresIntegrationSuite) TestVideoStore_InsertIfAbsent_PreservesOutOfBandColumns() {
	store := NewVideoStore(s.db)

	s.Require().NoError(store.InsertIfAbsent(s.ctx, &domain.Video{VideoID: "abc123", Title: "Test"}))
	_, err := s.db.ExecContext(s.ctx,
		"UPDATE youtube_videos SET transcript = $1, market_sentiment = $2 WHERE video_id = $3",
		"full transcript", "neutral", "abc123",
	)
	s.Require().NoError(err)

	s.Require().NoError(store.InsertIfAbsent(s.ctx, &domain.Video{VideoID: "abc123", Title: "Other"}))

	found, err := store.FindByID(s.ctx, "abc123")
	s.Require().NoError(err)
	s.Equal(testutil.Ptr("full transcript"), found.Transcript)
	s.Equal(testutil.Ptr("neutral"), found.MarketSentiment)
}

func (s *PostgresIntegrationSuite) TestVideoStore_FindTruncatesTranscript() {
	store := NewVideoStore(s.db)
	transcript := strings.Repeat("é", 300)

	_, err := s.db.ExecContext(s.ctx,
		"INSERT INTO youtube_videos (video_id, title, transcript) VALUES ($1, $2, $3)",
		"abc123", "Test", transcript,
	)
	s.Require().NoError(err)

	found, err := store.FindByID(s.ctx, "abc123")
	s.Require().NoError(err)
	s.Require().NotNil(found.Transcript)
	s.Equal(strings.Repeat("é", domain.TranscriptPreviewLen), *found.Transcript)
}

func (s *PostgresIntegrationSuite) TestVideoStore_ListIdentifiers_Pages() {
	store := NewVideoStore(s.db)

	for _, id := range []string{"k", "c", "q", "a", "f", "b", "o", "d", "m", "e", "l", "p", "g", "n", "i", "h", "j"} {
		s.Require().NoError(store.InsertIfAbsent(s.ctx, &domain.Video{VideoID: id}))
	}

	first, err := store.ListIdentifiers(s.ctx, domain.Page{Offset: 0, Limit: 10})
	s.Require().NoError(err)
	s.Equal([]string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}, first)

	second, err := store.ListIdentifiers(s.ctx, domain.Page{Offset: 10, Limit: 10})
	s.Require().NoError(err)
	s.Equal([]string{"k", "l", "m", "n", "o", "p", "q"}, second)

	defaults, err := store.ListIdentifiers(s.ctx, domain.Page{})
	s.Require().NoError(err)
	s.Equal(first, defaults)
}

func (s *PostgresIntegrationSuite) TestVideoStore_ClosedPoolIsStoreUnavailable() {
	connStr, err := s.container.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)

	db, err := sqlx.Connect("postgres", connStr)
	s.Require().NoError(err)
	s.Require().NoError(db.Close())

	_, err = NewVideoStore(db).FindByID(s.ctx, "abc123")
	s.ErrorIs(err, domain.ErrStoreUnavailable)
}

func (s *PostgresIntegrationSuite) TestTransaction_Rollback() {
	tm := NewTransactionManager(s.db)
	store := NewVideoStore(s.db)

	err := tm.WithTransaction(s.ctx, func(ctx context.Context) error {
		if err := store.InsertIfAbsent(ctx, &domain.Video{VideoID: "rolled-back"}); err != nil {
			return err
		}
		return context.Canceled
	})
	s.ErrorIs(err, context.Canceled)

	found, err := store.FindByID(s.ctx, "rolled-back")
	s.NoError(err)
	s.Nil(found)
}
