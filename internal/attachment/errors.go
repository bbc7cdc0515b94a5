package attachment

import "errors"

var (
	// ErrNoMetadata is returned when neither Content-Disposition nor
	// Content-Type yields a usable file extension
	ErrNoMetadata = errors.New("attachment response carries no file type metadata")

	// ErrQueueClosed is returned when starting a queue that was already closed
	ErrQueueClosed = errors.New("attachment queue closed")
)
