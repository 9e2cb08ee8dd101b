package port

import (
	"context"
	"io"
)

// UploadInput encapsulates the parameters needed to upload an object.
type UploadInput struct {
	Bucket      string
	Key         string
	Body        io.Reader
	ContentType string
}

// ObjectStorage abstracts cloud object storage. Download fetches
// source documents stored behind s3:// URLs; Upload archives debug
// artifacts.
type ObjectStorage interface {
	Download(ctx context.Context, bucket, key string) ([]byte, error)
	Upload(ctx context.Context, input UploadInput) error
}

// FileFetcher downloads a document from an allow-listed HTTP URL.
// Implementations must reject hosts outside the allow list before any
// network traffic happens.
type FileFetcher interface {
	Fetch(ctx context.Context, fileURL string) ([]byte, error)
}
