package extractors

import "errors"

var (
	ErrFileOpenFailed = errors.New("failed to open file")
	ErrParseFailed    = errors.New("failed to parse file content")
)
