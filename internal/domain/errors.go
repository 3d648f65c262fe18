package domain

import "errors"

var (
	// ErrJobNotFound is returned when a job cannot be found by ID.
	ErrJobNotFound = errors.New("job not found")

	// ErrNovelNotFound is returned when the referenced novel does not exist.
	ErrNovelNotFound = errors.New("novel not found")

	// ErrChapterNotFound is returned when the referenced chapter does not exist.
	ErrChapterNotFound = errors.New("chapter not found")

	// ErrInvalidCapability is returned when an unsupported capability is requested.
	ErrInvalidCapability = errors.New("invalid or unsupported capability")

	// ErrInvalidStatus is returned when a filter names an unknown job status.
	ErrInvalidStatus = errors.New("invalid job status")

	// ErrEmptySourceText is returned when a job requiring text has none to draw from.
	ErrEmptySourceText = errors.New("no text content available for generation")

	// ErrNoProviderConfigured is returned when no backend is configured for a capability.
	ErrNoProviderConfigured = errors.New("no provider configured")

	// ErrJobNotProcessing is returned when cancelling a job that is not in flight.
	ErrJobNotProcessing = errors.New("job is not currently processing")

	// ErrStaleDispatch is returned when a conditional state transition matched no
	// row, meaning the dispatch was superseded by a reset or cancel.
	ErrStaleDispatch = errors.New("dispatch superseded")

	// ErrPublishFailed is returned when the message broker publish fails.
	ErrPublishFailed = errors.New("failed to publish job to message queue")
)
