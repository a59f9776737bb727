package imaging

import "errors"

var (
	ErrInvalidImage        = errors.New("invalid or corrupt image")
	ErrUnsupportedFormat   = errors.New("unsupported image format")
	ErrInvalidParams       = errors.New("invalid transform parameters")
	ErrDimensionOutOfRange = errors.New("dimension out of range")
	ErrEncode              = errors.New("failed to encode image")
)
