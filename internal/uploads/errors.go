package uploads

import (
	"errors"
	"fmt"
)

var (
	// ErrFileTooLarge is returned by a content stream that was cut off at
	// the configured size limit.
	ErrFileTooLarge = errors.New("file too large")

	ErrUploadNotFound  = errors.New("upload not found")
	ErrInvalidUploadID = errors.New("invalid upload id")
	ErrDuplicateUpload = errors.New("upload already exists")
)

// MessageFileTooLarge is the client-facing message for oversized files.
const MessageFileTooLarge = "File exceeds the maximum allowed size."

// ErrorKind is the discriminant of an UploadError.
type ErrorKind int

const (
	KindInvalidInput ErrorKind = iota + 1
	KindInvalidFileFormat
	KindFileTooLarge
	KindStorage
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidInput:
		return "InvalidInput"
	case KindInvalidFileFormat:
		return "InvalidFileFormat"
	case KindFileTooLarge:
		return "FileTooLarge"
	case KindStorage:
		return "Storage"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// UploadError is the failure side of an upload result. Message is safe to
// show to clients; Err holds the underlying cause, if any.
type UploadError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *UploadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *UploadError) Unwrap() error { return e.Err }

func invalidFileFormat(what string) *UploadError {
	return &UploadError{
		Kind:    KindInvalidFileFormat,
		Message: fmt.Sprintf("Invalid file format: %s.", what),
	}
}

func invalidInput(err error) *UploadError {
	return &UploadError{Kind: KindInvalidInput, Message: err.Error(), Err: err}
}

func fileTooLarge(err error) *UploadError {
	return &UploadError{Kind: KindFileTooLarge, Message: MessageFileTooLarge, Err: err}
}

func storageFailure(err error) *UploadError {
	return &UploadError{Kind: KindStorage, Message: "Failed to store file.", Err: err}
}
