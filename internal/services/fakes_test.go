package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"sort"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AnshRaj112/pashu-bazaar-backend/internal/models"
	"github.com/AnshRaj112/pashu-bazaar-backend/internal/queue"
	"github.com/AnshRaj112/pashu-bazaar-backend/internal/repository"
)

type fakeUserStore struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
	err   error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[primitive.ObjectID]*models.User)}
}

func (f *fakeUserStore) Create(ctx context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	u.ID = primitive.NewObjectID()
	u.CreatedAt = time.Now()
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

type fakeAnimalStore struct {
	mu      sync.Mutex
	animals map[primitive.ObjectID]models.Animal
	clock   time.Time
	lists   int
}

func newFakeAnimalStore() *fakeAnimalStore {
	return &fakeAnimalStore{
		animals: make(map[primitive.ObjectID]models.Animal),
		clock:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (f *fakeAnimalStore) Create(ctx context.Context, a *models.Animal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clock = f.clock.Add(time.Second)
	a.ID = primitive.NewObjectID()
	a.CreatedAt = f.clock
	a.UpdatedAt = f.clock
	f.animals[a.ID] = *a
	return nil
}

func (f *fakeAnimalStore) List(ctx context.Context) ([]models.Animal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	out := make([]models.Animal, 0, len(f.animals))
	for _, a := range f.animals {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeAnimalStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Animal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.animals[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (f *fakeAnimalStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.animals[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.animals, id)
	return nil
}

func (f *fakeAnimalStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.animals)
}

type fakeListingCache struct {
	animals     []models.Animal
	ok          bool
	invalidated int
}

func (c *fakeListingCache) Get(ctx context.Context) ([]models.Animal, bool) { return c.animals, c.ok }

func (c *fakeListingCache) Set(ctx context.Context, animals []models.Animal) {
	c.animals, c.ok = animals, true
}

func (c *fakeListingCache) Invalidate(ctx context.Context) {
	c.animals, c.ok = nil, false
	c.invalidated++
}

type fakePublisher struct {
	events []queue.ListingCreatedEvent
	err    error
}

func (p *fakePublisher) PublishListingCreated(ctx context.Context, ev queue.ListingCreatedEvent) error {
	p.events = append(p.events, ev)
	return p.err
}

type fakeNotificationStore struct {
	mu    sync.Mutex
	items []models.Notification
	clock time.Time
}

func (f *fakeNotificationStore) Create(ctx context.Context, n *models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clock = f.clock.Add(time.Second)
	n.ID = primitive.NewObjectID()
	n.CreatedAt = f.clock
	f.items = append(f.items, *n)
	return nil
}

func (f *fakeNotificationStore) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Notification, 0)
	for i := len(f.items) - 1; i >= 0; i-- {
		if f.items[i].User == userID {
			out = append(out, f.items[i])
		}
	}
	return out, nil
}

func (f *fakeNotificationStore) MarkAllRead(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for i := range f.items {
		if f.items[i].User == userID && !f.items[i].Read {
			f.items[i].Read = true
			n++
		}
	}
	return n, nil
}

// memMediaStore records saved files; failAfter > 0 fails the nth save.
type memMediaStore struct {
	mu        sync.Mutex
	files     map[string][]byte
	saves     int
	failAfter int
}

func newMemMediaStore() *memMediaStore {
	return &memMediaStore{files: make(map[string][]byte)}
}

func (m *memMediaStore) Save(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.failAfter > 0 && m.saves == m.failAfter {
		return "", errors.New("disk full")
	}
	if _, ok := m.files[name]; ok {
		return "", fmt.Errorf("%s exists", name)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.files[name] = data
	return "/uploads/" + name, nil
}

func (m *memMediaStore) Remove(ctx context.Context, name, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, name)
	return nil
}

func (m *memMediaStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files)
}

type countingRecorder struct {
	mu            sync.Mutex
	created       int
	deleted       int
	uploaded      int
	rejected      []string
	notifications int
}

func (r *countingRecorder) ListingCreated() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created++
}

func (r *countingRecorder) ListingDeleted() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted++
}

func (r *countingRecorder) FilesUploaded(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.uploaded += n
}

func (r *countingRecorder) UploadRejected(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejected = append(r.rejected, reason)
}

func (r *countingRecorder) NotificationCreated() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications++
}

type testFile struct {
	name        string
	contentType string
	body        []byte
}

// fileHeaders encodes files as a multipart form under "photos" and parses
// it back, so each header carries a real size and content type.
func fileHeaders(t *testing.T, files ...testFile) []*multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="photos"; filename="%s"`, f.name))
		h.Set("Content-Type", f.contentType)
		part, err := w.CreatePart(h)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		if _, err := part.Write(f.body); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(64 << 20)
	if err != nil {
		t.Fatalf("read form: %v", err)
	}
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["photos"]
}
