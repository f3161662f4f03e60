package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// MediaStore persists uploaded bytes under a server-assigned name and
// returns the URL clients use to fetch them.
type MediaStore interface {
	Save(ctx context.Context, name, contentType string, r io.Reader) (string, error)
	Remove(ctx context.Context, name, contentType string) error
}

// DiskStore writes files into one flat directory served at URLPrefix.
type DiskStore struct {
	dir       string
	urlPrefix string
}

func NewDiskStore(dir, urlPrefix string) *DiskStore {
	if urlPrefix == "" {
		urlPrefix = "/uploads"
	}
	return &DiskStore{dir: dir, urlPrefix: strings.TrimSuffix(urlPrefix, "/")}
}

func (d *DiskStore) Dir() string { return d.dir }

// Save never overwrites: an existing file with the same name is an error.
func (d *DiskStore) Save(ctx context.Context, name, _ string, r io.Reader) (string, error) {
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	dst := filepath.Join(d.dir, filepath.Base(name))
	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := io.Copy(f, &ctxReader{ctx: ctx, r: r}); err != nil {
		_ = f.Close()
		_ = os.Remove(dst)
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(dst)
		return "", fmt.Errorf("close %s: %w", name, err)
	}
	return d.urlPrefix + "/" + filepath.Base(name), nil
}

func (d *DiskStore) Remove(_ context.Context, name, _ string) error {
	err := os.Remove(filepath.Join(d.dir, filepath.Base(name)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ctxReader stops a copy once the request is gone.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

// CloudinaryStore keeps media in a Cloudinary folder.
type CloudinaryStore struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinaryStore(cloudName, apiKey, apiSecret, folder string) (*CloudinaryStore, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	return &CloudinaryStore{cld: cld, folder: folder}, nil
}

func (s *CloudinaryStore) Save(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	res, err := s.cld.Upload.Upload(ctx, r, uploader.UploadParams{
		Folder:       s.folder,
		PublicID:     publicID(name),
		ResourceType: resourceType(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to Cloudinary: %w", err)
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("cloudinary rejected %s: %s", name, res.Error.Message)
	}
	return res.SecureURL, nil
}

func (s *CloudinaryStore) Remove(ctx context.Context, name, contentType string) error {
	id := publicID(name)
	if s.folder != "" {
		id = s.folder + "/" + id
	}
	_, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     id,
		ResourceType: resourceType(contentType),
	})
	return err
}

func publicID(name string) string {
	return strings.TrimSuffix(name, path.Ext(name))
}

func resourceType(contentType string) string {
	if strings.HasPrefix(contentType, "video/") {
		return "video"
	}
	return "image"
}
