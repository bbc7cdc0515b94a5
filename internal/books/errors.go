package books

import "errors"

var (
	// ErrNotFound is returned when the API answers 404 for a record or project
	ErrNotFound = errors.New("resource not found")

	// ErrUnexpectedStatus is returned for any other non-200 answer
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")

	// ErrAPI is returned when the API answers 200 with a non-zero error code
	ErrAPI = errors.New("books API error")

	// ErrMissingField is returned when an expected envelope key is absent
	ErrMissingField = errors.New("response field missing")

	// ErrPartialCollection wraps a page failure after which only the pages
	// fetched so far are returned
	ErrPartialCollection = errors.New("collection fetched partially")
)
