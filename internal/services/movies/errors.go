package movies

import "errors"

var (
	ErrMovieNotFound  = errors.New("movie not found")
	ErrInvalidVideo   = errors.New("file is not a video")
	ErrVideoTooLarge  = errors.New("video exceeds the upload limit")
	ErrAssetsDisabled = errors.New("video uploads are not configured")
)
