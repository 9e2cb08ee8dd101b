package domain

import "errors"

var (
	ErrNotFound            = errors.New("resource not found")
	ErrMissingDocumentID   = errors.New("documentId is required")
	ErrMissingFileURL      = errors.New("fileUrl is required")
	ErrDisallowedURL       = errors.New("fileUrl host is not on the allowed storage domains list")
	ErrInvalidFileURL      = errors.New("fileUrl is not a valid URL")
	ErrDownloadFailed      = errors.New("document download failed")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrRecordNotFound      = errors.New("extraction record not found")
)
