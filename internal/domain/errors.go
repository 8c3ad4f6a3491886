package domain

import "errors"

// Every failure that leaves the pipeline wraps exactly one of these.
// Anything else is reported as an unknown error.
var (
	ErrInput          = errors.New("invalid input")
	ErrUnsupportedURL = errors.New("unsupported YouTube URL")
	ErrNoTranscript   = errors.New("no transcript available")
	ErrLoad           = errors.New("load content")
	ErrSummarization  = errors.New("summarize content")
)

// Refinements of ErrInput.
var (
	ErrMissingInput = errors.New("credential or URL is missing")
	ErrInvalidURL   = errors.New("URL is not valid")
)
