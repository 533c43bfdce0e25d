package models

import "errors"

var (
	// ErrInvalidModelDownloadStatus is returned when a model request fails
	// or answers with anything other than 200 OK.
	ErrInvalidModelDownloadStatus = errors.New("invalid model download status")
	ErrMissingModelURL            = errors.New("missing model url")
)
