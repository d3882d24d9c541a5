package domain

// TranscriptPreviewLen is the number of transcript characters returned by store reads.
const TranscriptPreviewLen = 255

type Video struct {
	VideoID      string `db:"video_id" json:"video_id"`
	Title        string `db:"title" json:"title"`
	PublishedAt  string `db:"published_at" json:"published_at"` // ISO-8601, verbatim from the platform
	ThumbnailURL string `db:"thumbnail_url" json:"thumbnail_url"`
	ChannelID    string `db:"channel_id" json:"channel_id"`
	Duration     string `db:"duration" json:"duration"` // ISO-8601 duration, e.g. "PT5M"

	// Store-only fields, populated out-of-band. Never set on API-sourced records.
	Transcript      *string `db:"transcript" json:"transcript,omitempty"`
	MarketSentiment *string `db:"market_sentiment" json:"market_sentiment,omitempty"`
}

const (
	DefaultPageOffset = 0
	DefaultPageLimit  = 10
)

// Page is an offset/limit window over stored video identifiers.
type Page struct {
	Offset int
	Limit  int
}

// Normalize applies the default offset and limit to unset or negative values.
func (p Page) Normalize() Page {
	if p.Offset < 0 {
		p.Offset = DefaultPageOffset
	}
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	return p
}
