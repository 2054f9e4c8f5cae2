package uploads

import "errors"

var (
	ErrNotVideo     = errors.New("Video file must be a video")
	ErrNotImage     = errors.New("Photo files must be images")
	ErrInvalidKind  = errors.New("kind must be photo or video")
	ErrFileRequired = errors.New("file_name is required")
)
