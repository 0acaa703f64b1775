package ports

import "context"

// ImageFetcher retrieves raw image bytes from a public URL.
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// ProgressFunc is called with the 1-based index of the image about to be
// processed and the batch size.
type ProgressFunc func(current, total int)

// WatermarkService composites the brand mark onto listing photos.
type WatermarkService interface {
	WatermarkOne(ctx context.Context, sourceURL string) ([]byte, error)
	BuildArchive(ctx context.Context, sourceURLs []string, baseName string, onProgress ProgressFunc) ([]byte, error)
}
