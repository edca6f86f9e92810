package upload

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"

	"geckohub/internal/domain/access"
	"geckohub/internal/ports/blob"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var extByType = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// Image es un archivo de imagen ya leído y validado.
type Image struct {
	Data        []byte
	ContentType string
	Filename    string
}

// ReadImage lee el campo multipart `field`. El content type se detecta sobre
// los bytes (no se confía en el header del cliente).
func ReadImage(r *http.Request, field string, maxBytes int64) (Image, error) {
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		return Image{}, access.Invalid(field, "expected multipart/form-data within the upload limit")
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		return Image{}, access.Invalid(field, "file is required")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return Image{}, errors.Wrap(err, "read upload")
	}
	if int64(len(data)) > maxBytes {
		return Image{}, access.Invalid(field, "file exceeds the upload limit")
	}

	ct := http.DetectContentType(data)
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = ct[:i]
	}
	if _, ok := extByType[ct]; !ok {
		return Image{}, access.Invalid(field, "only jpeg, png and webp images are accepted")
	}

	return Image{Data: data, ContentType: ct, Filename: header.Filename}, nil
}

// Key arma "<prefix>/<uuid>.<ext>".
func Key(prefix, contentType string) (string, error) {
	ext, ok := extByType[contentType]
	if !ok {
		return "", access.Invalid("image", "unsupported content type")
	}
	return prefix + "/" + uuid.NewString() + "." + ext, nil
}

// Save sube la imagen y devuelve la URL pública.
func Save(ctx context.Context, store blob.Store, prefix string, img Image) (string, error) {
	key, err := Key(prefix, img.ContentType)
	if err != nil {
		return "", err
	}
	url, err := store.Put(ctx, key, bytes.NewReader(img.Data), int64(len(img.Data)), img.ContentType)
	if err != nil {
		return "", errors.Wrapf(err, "store %s", key)
	}
	return url, nil
}
