package domain

import "errors"

var (
	// ErrNotFound is returned when the platform has no video for an identifier.
	ErrNotFound = errors.New("video not found")
	// ErrMalformedResponse is returned when a platform response does not match the expected shape.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrNetworkFailure covers transport errors and non-2xx platform responses.
	ErrNetworkFailure = errors.New("network failure")
	// ErrStoreUnavailable is returned when the video store cannot be reached.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrInvalidVideo is returned when a video handed to the store has no video_id.
	ErrInvalidVideo = errors.New("invalid video")
)
