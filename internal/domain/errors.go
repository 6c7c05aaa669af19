package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrJobRunning        = errors.New("job is running")
	ErrJobNotRetryable   = errors.New("job is not retryable")
	ErrAlreadyUpscaled   = errors.New("item is already upscaled")
	ErrAlready4K         = errors.New("item is already 4k regenerated")
	ErrOperationInFlight = errors.New("operation already in flight for item")
	ErrProviderFailure   = errors.New("provider failure")
	ErrEmptyResult       = errors.New("provider returned no images")
)
