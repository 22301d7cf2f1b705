package file

import "errors"

var (
	// ErrFileNotFound also covers files the caller may not read, so existence
	// is never revealed.
	ErrFileNotFound          = errors.New("file not found")
	ErrEmptyFile             = errors.New("file is empty")
	ErrFileTooLarge          = errors.New("file exceeds the size limit")
	ErrContentTypeNotAllowed = errors.New("file content type is not allowed")
)
