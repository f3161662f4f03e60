package services

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"
)

var uploadNamePattern = regexp.MustCompile(`^\d{13}-[0-9a-f]{9}(\.[a-z0-9]+)?$`)

func TestMediaService_UploadImage(t *testing.T) {
	store := newMemMediaStore()
	rec := &countingRecorder{}
	svc := NewMediaService(store, MediaLimits{}, rec, nil)

	files := fileHeaders(t, testFile{"Cow Photo.JPG", "image/jpeg", []byte("jpeg-bytes")})
	out, err := svc.Upload(context.Background(), files)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("len = %d, want 1", len(out))
	}
	f := out[0]
	if !uploadNamePattern.MatchString(f.Filename) {
		t.Errorf("Filename %q does not match %s", f.Filename, uploadNamePattern)
	}
	if !strings.HasSuffix(f.Filename, ".jpg") {
		t.Errorf("Filename %q should keep the lower-cased extension", f.Filename)
	}
	if f.URL != "/uploads/"+f.Filename {
		t.Errorf("URL = %q", f.URL)
	}
	if f.MimeType != "image/jpeg" {
		t.Errorf("MimeType = %q", f.MimeType)
	}
	if got := string(store.files[f.Filename]); got != "jpeg-bytes" {
		t.Errorf("stored %q", got)
	}
	if rec.uploaded != 1 {
		t.Errorf("uploaded counter = %d, want 1", rec.uploaded)
	}
}

func TestMediaService_AcceptsVideo(t *testing.T) {
	svc := NewMediaService(newMemMediaStore(), MediaLimits{}, nil, nil)
	files := fileHeaders(t, testFile{"walk.mp4", "video/mp4", []byte("mp4")})
	if _, err := svc.Upload(context.Background(), files); err != nil {
		t.Fatalf("Upload: %v", err)
	}
}

func TestMediaService_RejectsWholeBatch(t *testing.T) {
	small := []byte("x")
	nine := make([]testFile, 9)
	for i := range nine {
		nine[i] = testFile{"p.png", "image/png", small}
	}

	tests := []struct {
		name   string
		files  []testFile
		limits MediaLimits
		want   error
		reason string
	}{
		{"nine files", nine, MediaLimits{}, ErrTooManyFiles, "count"},
		{"pdf after an image", []testFile{{"a.png", "image/png", small}, {"doc.pdf", "application/pdf", small}}, MediaLimits{}, ErrUnsupportedMediaType, "type"},
		{"too large", []testFile{{"a.png", "image/png", small}, {"b.png", "image/png", bytes.Repeat([]byte("x"), 64)}}, MediaLimits{MaxFileBytes: 32}, ErrPayloadTooLarge, "size"},
		{"no files", nil, MediaLimits{}, ErrValidation, "empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemMediaStore()
			rec := &countingRecorder{}
			svc := NewMediaService(store, tt.limits, rec, nil)

			_, err := svc.Upload(context.Background(), fileHeaders(t, tt.files...))
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if store.saves != 0 {
				t.Errorf("%d files written before rejection", store.saves)
			}
			if len(rec.rejected) != 1 || rec.rejected[0] != tt.reason {
				t.Errorf("rejected = %v, want [%s]", rec.rejected, tt.reason)
			}
		})
	}
}

func TestMediaService_RollsBackOnWriteFailure(t *testing.T) {
	store := newMemMediaStore()
	store.failAfter = 3
	svc := NewMediaService(store, MediaLimits{}, nil, nil)

	files := fileHeaders(t,
		testFile{"a.png", "image/png", []byte("a")},
		testFile{"b.png", "image/png", []byte("b")},
		testFile{"c.png", "image/png", []byte("c")},
	)
	if _, err := svc.Upload(context.Background(), files); err == nil {
		t.Fatal("expected an error")
	}
	if store.count() != 0 {
		t.Errorf("%d files left behind after a failed batch", store.count())
	}
}

func TestMediaService_NamesAreDistinctUnderConcurrency(t *testing.T) {
	svc := NewMediaService(newMemMediaStore(), MediaLimits{}, nil, nil)
	fixed := time.UnixMilli(1700000000000)
	svc.now = func() time.Time { return fixed }

	const n = 200
	names := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			names <- svc.newName("photo.jpg")
		}()
	}
	wg.Wait()
	close(names)

	seen := make(map[string]bool)
	for name := range names {
		if seen[name] {
			t.Fatalf("duplicate name %q", name)
		}
		seen[name] = true
	}
}

func TestSafeExt(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"photo.JPG", ".jpg"},
		{"clip.mp4", ".mp4"},
		{"noext", ""},
		{"../../etc/passwd.png", ".png"},
		{"weird.p/ng", ""},
		{"bad.ph p", ""},
		{"long.abcdefghijkl", ""},
		{"trailing.", ""},
	}
	for _, tt := range tests {
		if got := safeExt(tt.in); got != tt.want {
			t.Errorf("safeExt(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDiskStore_SaveCreatesDirAndNeverOverwrites(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	store := NewDiskStore(dir, "/uploads")
	ctx := context.Background()

	url, err := store.Save(ctx, "1-abc.png", "image/png", strings.NewReader("first"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if url != "/uploads/1-abc.png" {
		t.Errorf("url = %q", url)
	}
	data, err := os.ReadFile(filepath.Join(dir, "1-abc.png"))
	if err != nil || string(data) != "first" {
		t.Fatalf("read back %q, %v", data, err)
	}

	if _, err := store.Save(ctx, "1-abc.png", "image/png", strings.NewReader("second")); err == nil {
		t.Error("expected an error when the name already exists")
	}
	data, _ = os.ReadFile(filepath.Join(dir, "1-abc.png"))
	if string(data) != "first" {
		t.Errorf("file overwritten: %q", data)
	}

	if err := store.Remove(ctx, "1-abc.png", "image/png"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := store.Remove(ctx, "1-abc.png", "image/png"); err != nil {
		t.Errorf("Remove of a missing file: %v", err)
	}
}

func TestDiskStore_UploadPDFWritesNothing(t *testing.T) {
	dir := t.TempDir()
	svc := NewMediaService(NewDiskStore(dir, "/uploads"), MediaLimits{}, nil, nil)

	_, err := svc.Upload(context.Background(), fileHeaders(t, testFile{"doc.pdf", "application/pdf", []byte("%PDF")}))
	if !errors.Is(err, ErrUnsupportedMediaType) {
		t.Fatalf("err = %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("directory has %d entries", len(entries))
	}
}

func TestCloudinaryHelpers(t *testing.T) {
	if got := publicID("1700-abc.jpg"); got != "1700-abc" {
		t.Errorf("publicID = %q", got)
	}
	if resourceType("video/mp4") != "video" || resourceType("image/png") != "image" {
		t.Error("resourceType mismatch")
	}
}
