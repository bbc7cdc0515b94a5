// Package attachment downloads record attachments next to the report.
// Downloads are best-effort: failures are logged and never affect the report.
package attachment

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/garyjia/books-report/internal/models"
	"github.com/garyjia/books-report/internal/storage"
	"go.uber.org/zap"
)

// Opener opens a binary API resource
type Opener interface {
	Open(ctx context.Context, path string) (*http.Response, error)
}

// FolderResolver maps a folder name to its path under the extract root
type FolderResolver interface {
	GetFolderPath(folder string) string
}

// Downloader fetches one attachment and writes it to
// <extract-root>/<collection>/<sanitized-name>.<ext>.
// The collection folder must exist before Download is called.
type Downloader struct {
	opener  Opener
	folders FolderResolver
	files   storage.FileStorage
	logger  *zap.Logger
}

// NewDownloader creates a new Downloader
func NewDownloader(opener Opener, folders FolderResolver, files storage.FileStorage, logger *zap.Logger) *Downloader {
	return &Downloader{
		opener:  opener,
		folders: folders,
		files:   files,
		logger:  logger,
	}
}

// Download streams the attachment of intent to disk
func (d *Downloader) Download(ctx context.Context, intent models.AttachmentIntent) (*models.AttachmentFile, error) {
	resp, err := d.opener.Open(ctx, intent.ResourcePath())
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", intent.ResourcePath(), err)
	}
	defer resp.Body.Close()

	ext, err := ExtensionFromHeaders(resp.Header)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", intent.ResourcePath(), err)
	}

	name := storage.SanitizeFileName(intent.BaseName) + "." + ext
	fullPath := filepath.Join(d.folders.GetFolderPath(intent.Type.Collection()), name)

	size, err := d.files.SaveStream(fullPath, resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to save %s: %w", name, err)
	}

	d.logger.Info("Attachment downloaded",
		zap.String("record_type", string(intent.Type)),
		zap.String("record_id", intent.RecordID),
		zap.String("file_path", fullPath),
		zap.Int64("file_size", size))

	return &models.AttachmentFile{
		Intent:       intent,
		FilePath:     fullPath,
		MimeType:     resp.Header.Get("Content-Type"),
		Size:         size,
		DownloadedAt: time.Now(),
	}, nil
}

var extensionChars = regexp.MustCompile(`[^a-z0-9]`)

// ExtensionFromHeaders derives a file extension from response metadata.
// The Content-Disposition filename wins; otherwise the Content-Type subtype
// is used ("image/svg+xml" gives "svg").
func ExtensionFromHeaders(h http.Header) (string, error) {
	if cd := h.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			if ext := cleanExtension(filepath.Ext(params["filename"])); ext != "" {
				return ext, nil
			}
		}
	}

	if ct := h.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err == nil {
			if i := strings.LastIndex(mediaType, "/"); i >= 0 {
				subtype := mediaType[i+1:]
				if j := strings.Index(subtype, "+"); j >= 0 {
					subtype = subtype[:j]
				}
				if subtype == "octet-stream" {
					return "bin", nil
				}
				if ext := cleanExtension(subtype); ext != "" {
					return ext, nil
				}
			}
		}
	}

	return "", ErrNoMetadata
}

func cleanExtension(ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	return extensionChars.ReplaceAllString(ext, "")
}
