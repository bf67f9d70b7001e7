package transport

import "context"

// Uploader delivers a finished archive to the web server. Delivery
// protocols stay outside this package; the packer only hands over the
// archive path.
type Uploader interface {
	Upload(ctx context.Context, zipPath string) error
}

// UploaderFunc adapts a function to the Uploader interface.
type UploaderFunc func(ctx context.Context, zipPath string) error

// Upload calls f.
func (f UploaderFunc) Upload(ctx context.Context, zipPath string) error {
	return f(ctx, zipPath)
}
