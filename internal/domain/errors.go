package domain

import "errors"

var (
	ErrNotFound           = errors.New("resource not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDocumentFetch      = errors.New("document fetch failed")
	ErrUploadFailed       = errors.New("file upload failed")
	ErrDeleteFailed       = errors.New("export deletion failed")
	ErrNotConfirmed       = errors.New("deletion not confirmed")
	ErrInvalidScope       = errors.New("invalid document scope")
)
