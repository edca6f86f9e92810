package blob

import (
	"context"
	"io"
)

// Store guarda adjuntos (imágenes) como blobs opacos direccionables por URL.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}
