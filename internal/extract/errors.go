package extract

import "errors"

var (
	// ErrUnsupportedFileType is returned for extensions outside pdf, docx
	// and html/htm. The file is not read.
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrExtractionUnavailable is returned when a supported type has been
	// disabled by configuration.
	ErrExtractionUnavailable = errors.New("extraction unavailable for file type")

	// ErrExtractionFailed wraps read, parse and empty-text failures.
	ErrExtractionFailed = errors.New("text extraction failed")
)
