package backoffice

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

const maxUploadSize = 10 << 20 // 10MB

// Image types the backend accepts.
var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// UploadImage sends an image as multipart form data and returns the stored
// file's URL. Type and size are validated client-side before any bytes move.
// The request is never retried: the body is not replayable.
func (c *Client) UploadImage(ctx context.Context, filename string, content io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedImageExts[ext] {
		return "", errors.Errorf("[backoffice.Client.UploadImage] unsupported file type %q", ext)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return "", errors.Wrap(err, "[backoffice.Client.UploadImage] create form file")
	}
	n, err := io.Copy(part, io.LimitReader(content, maxUploadSize+1))
	if err != nil {
		return "", errors.Wrap(err, "[backoffice.Client.UploadImage] read content")
	}
	if n > maxUploadSize {
		return "", errors.New("[backoffice.Client.UploadImage] file exceeds 10MB limit")
	}
	if err := writer.Close(); err != nil {
		return "", errors.Wrap(err, "[backoffice.Client.UploadImage] finish form")
	}

	var fileURL string
	if err := c.api.DoMultipart(ctx, "/common/upload", writer.FormDataContentType(), &buf, &fileURL); err != nil {
		return "", errors.Wrap(err, "[backoffice.Client.UploadImage]")
	}
	return fileURL, nil
}
