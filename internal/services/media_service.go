package services

import (
	"context"
	"fmt"
	"log/slog"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/AnshRaj112/pashu-bazaar-backend/internal/models"
)

const (
	DefaultMaxFiles     = 8
	DefaultMaxFileBytes = 20 << 20
)

type MediaLimits struct {
	MaxFiles     int
	MaxFileBytes int64
}

// MediaService accepts uploaded images and videos. It knows nothing about
// listings; callers embed the returned URLs themselves.
type MediaService struct {
	store   MediaStore
	limits  MediaLimits
	metrics Recorder
	logger  *slog.Logger
	now     func() time.Time
}

func NewMediaService(store MediaStore, limits MediaLimits, metrics Recorder, logger *slog.Logger) *MediaService {
	if limits.MaxFiles <= 0 {
		limits.MaxFiles = DefaultMaxFiles
	}
	if limits.MaxFileBytes <= 0 {
		limits.MaxFileBytes = DefaultMaxFileBytes
	}
	if metrics == nil {
		metrics = nopRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MediaService{store: store, limits: limits, metrics: metrics, logger: logger, now: time.Now}
}

func (s *MediaService) Limits() MediaLimits { return s.limits }

// Upload stores every file or none. The whole batch is checked before the
// first write, and files already written are removed if a later one fails.
func (s *MediaService) Upload(ctx context.Context, files []*multipart.FileHeader) ([]models.UploadedFile, error) {
	if err := s.check(files); err != nil {
		return nil, err
	}

	out := make([]models.UploadedFile, 0, len(files))
	for _, fh := range files {
		mime := fh.Header.Get("Content-Type")
		name := s.newName(fh.Filename)

		url, err := s.save(ctx, fh, name, mime)
		if err != nil {
			s.rollback(ctx, out)
			return nil, err
		}
		out = append(out, models.UploadedFile{Filename: name, URL: url, MimeType: mime})
	}

	s.metrics.FilesUploaded(len(out))
	return out, nil
}

func (s *MediaService) check(files []*multipart.FileHeader) error {
	if len(files) == 0 {
		s.metrics.UploadRejected("empty")
		return validationError("no files uploaded")
	}
	if len(files) > s.limits.MaxFiles {
		s.metrics.UploadRejected("count")
		return fmt.Errorf("%w: at most %d files per upload", ErrTooManyFiles, s.limits.MaxFiles)
	}
	for _, fh := range files {
		if !allowedMediaType(fh.Header.Get("Content-Type")) {
			s.metrics.UploadRejected("type")
			return ErrUnsupportedMediaType
		}
		if fh.Size > s.limits.MaxFileBytes {
			s.metrics.UploadRejected("size")
			return fmt.Errorf("%w: %s exceeds %d bytes", ErrPayloadTooLarge, fh.Filename, s.limits.MaxFileBytes)
		}
	}
	return nil
}

func (s *MediaService) save(ctx context.Context, fh *multipart.FileHeader, name, mime string) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()

	url, err := s.store.Save(ctx, name, mime, f)
	if err != nil {
		return "", fmt.Errorf("store upload: %w", err)
	}
	return url, nil
}

func (s *MediaService) rollback(ctx context.Context, written []models.UploadedFile) {
	for _, f := range written {
		if err := s.store.Remove(context.WithoutCancel(ctx), f.Filename, f.MimeType); err != nil {
			s.logger.Error("failed to remove partial upload",
				slog.String("filename", f.Filename),
				slog.String("error", err.Error()),
			)
		}
	}
}

// newName is "<unix millis>-<9 random hex>" plus the original extension.
// The random part keeps names apart within one millisecond.
func (s *MediaService) newName(original string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("%d-%s%s", s.now().UnixMilli(), suffix, safeExt(original))
}

func allowedMediaType(mime string) bool {
	mime = strings.ToLower(strings.TrimSpace(mime))
	return strings.HasPrefix(mime, "image/") || strings.HasPrefix(mime, "video/")
}

// safeExt keeps a short alphanumeric extension and drops anything else.
func safeExt(original string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(original)))
	if len(ext) < 2 || len(ext) > 10 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
