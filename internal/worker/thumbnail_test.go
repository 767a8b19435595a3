package worker

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/gif"
	"image/png"
	"log/slog"
	"testing"

	"filedepot/internal/apperror"
	"filedepot/internal/files"
	"filedepot/internal/queue"
	"filedepot/internal/storage"
)

// --- Mocks ---

type mockFileRepo struct {
	findByIDAndOwnerFn func(ctx context.Context, id, userID string) (*files.File, error)
}

func (m *mockFileRepo) Create(ctx context.Context, file *files.File) error { return nil }

func (m *mockFileRepo) FindByID(ctx context.Context, id string) (*files.File, error) {
	return nil, apperror.NewNotFound("Not found")
}

func (m *mockFileRepo) FindByIDAndOwner(ctx context.Context, id, userID string) (*files.File, error) {
	if m.findByIDAndOwnerFn != nil {
		return m.findByIDAndOwnerFn(ctx, id, userID)
	}
	return nil, apperror.NewNotFound("Not found")
}

func (m *mockFileRepo) SetPublic(ctx context.Context, id string, isPublic bool) error { return nil }

func (m *mockFileRepo) ListByOwner(ctx context.Context, userID string, parentID *string, page int) ([]files.File, error) {
	return nil, nil
}

func (m *mockFileRepo) Count(ctx context.Context) (int, error) { return 0, nil }

type memStore struct {
	data map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}}
}

func (s *memStore) Save(key string, data []byte) error {
	s.data[key] = data
	return nil
}

func (s *memStore) Read(key string) ([]byte, error) {
	data, ok := s.data[key]
	if !ok {
		return nil, errors.New("no such content")
	}
	return data, nil
}

func (s *memStore) Exists(key string) bool {
	_, ok := s.data[key]
	return ok
}

func (s *memStore) Path(key string) string { return "/mem/" + key }

// --- Helpers ---

// pngBytes renders a solid image of the given dimensions as PNG.
func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding test image: %v", err)
	}
	return buf.Bytes()
}

func decodeSize(t *testing.T, data []byte) (int, int) {
	t.Helper()

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decoding variant: %v", err)
	}
	return cfg.Width, cfg.Height
}

func newTestThumbnailer(repo files.FileRepository, store storage.Store) *Thumbnailer {
	return NewThumbnailer(nil, repo, store, slog.Default())
}

// --- Process Tests ---

func TestProcess_GeneratesAllVariants(t *testing.T) {
	store := newMemStore()
	store.data["key-1"] = pngBytes(t, 1000, 400)

	repo := &mockFileRepo{
		findByIDAndOwnerFn: func(ctx context.Context, id, userID string) (*files.File, error) {
			return &files.File{
				ID: id, UserID: userID,
				Name: "wide.png", Type: files.TypeImage, LocalPath: "key-1",
			}, nil
		},
	}

	th := newTestThumbnailer(repo, store)
	err := th.Process(context.Background(), queue.ThumbnailJob{UserID: "user-1", FileID: "file-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []int{500, 250, 100} {
		key := storage.VariantKey("key-1", files.VariantLabel(want))
		data, err := store.Read(key)
		if err != nil {
			t.Fatalf("variant %d missing: %v", want, err)
		}

		w, h := decodeSize(t, data)
		if w != want {
			t.Errorf("variant width %d, want %d", w, want)
		}
		// 1000x400 scales to width w at the same 5:2 ratio.
		if wantH := want * 400 / 1000; h != wantH {
			t.Errorf("variant %d height %d, want %d", want, h, wantH)
		}
	}
}

func TestProcess_DoesNotUpscaleSmallImages(t *testing.T) {
	store := newMemStore()
	store.data["key-1"] = pngBytes(t, 80, 60)

	repo := &mockFileRepo{
		findByIDAndOwnerFn: func(ctx context.Context, id, userID string) (*files.File, error) {
			return &files.File{
				ID: id, UserID: userID,
				Name: "tiny.png", Type: files.TypeImage, LocalPath: "key-1",
			}, nil
		},
	}

	th := newTestThumbnailer(repo, store)
	err := th.Process(context.Background(), queue.ThumbnailJob{UserID: "user-1", FileID: "file-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// All variants exist but none is larger than the original.
	for _, size := range []string{"500", "250", "100"} {
		data, err := store.Read(storage.VariantKey("key-1", size))
		if err != nil {
			t.Fatalf("variant %s missing: %v", size, err)
		}
		if w, h := decodeSize(t, data); w != 80 || h != 60 {
			t.Errorf("variant %s is %dx%d, want original 80x60", size, w, h)
		}
	}
}

func TestProcess_PNGVariantsStayPNG(t *testing.T) {
	store := newMemStore()
	store.data["key-1"] = pngBytes(t, 600, 600)

	repo := &mockFileRepo{
		findByIDAndOwnerFn: func(ctx context.Context, id, userID string) (*files.File, error) {
			return &files.File{
				ID: id, UserID: userID,
				Name: "square.png", Type: files.TypeImage, LocalPath: "key-1",
			}, nil
		},
	}

	th := newTestThumbnailer(repo, store)
	if err := th.Process(context.Background(), queue.ThumbnailJob{UserID: "user-1", FileID: "file-1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := store.Read(storage.VariantKey("key-1", "250"))
	if err != nil {
		t.Fatalf("variant missing: %v", err)
	}

	_, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decoding variant: %v", err)
	}
	if format != "png" {
		t.Errorf("variant re-encoded as %s, want png", format)
	}
}

func TestProcess_DecodesGIF(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 600, 300))
	var buf bytes.Buffer
	if err := gif.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encoding test gif: %v", err)
	}

	store := newMemStore()
	store.data["key-1"] = buf.Bytes()

	repo := &mockFileRepo{
		findByIDAndOwnerFn: func(ctx context.Context, id, userID string) (*files.File, error) {
			return &files.File{ID: id, UserID: userID, Name: "anim.gif", Type: files.TypeImage, LocalPath: "key-1"}, nil
		},
	}

	th := newTestThumbnailer(repo, store)
	if err := th.Process(context.Background(), queue.ThumbnailJob{UserID: "user-1", FileID: "file-1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := store.Read(storage.VariantKey("key-1", "250"))
	if err != nil {
		t.Fatalf("variant missing: %v", err)
	}
	if w, _ := decodeSize(t, data); w != 250 {
		t.Errorf("variant width %d, want 250", w)
	}
}

func TestProcess_DecodesWebP(t *testing.T) {
	// 1x1 lossy WebP.
	raw, err := base64.StdEncoding.DecodeString(
		"UklGRiQAAABXRUJQVlA4IBgAAAAwAQCdASoBAAEAAwA0JaQAA3AA/vuUAAA=")
	if err != nil {
		t.Fatalf("decoding test payload: %v", err)
	}

	store := newMemStore()
	store.data["key-1"] = raw

	repo := &mockFileRepo{
		findByIDAndOwnerFn: func(ctx context.Context, id, userID string) (*files.File, error) {
			return &files.File{ID: id, UserID: userID, Name: "pic.webp", Type: files.TypeImage, LocalPath: "key-1"}, nil
		},
	}

	th := newTestThumbnailer(repo, store)
	if err := th.Process(context.Background(), queue.ThumbnailJob{UserID: "user-1", FileID: "file-1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, size := range []string{"500", "250", "100"} {
		if !store.Exists(storage.VariantKey("key-1", size)) {
			t.Errorf("variant %s missing", size)
		}
	}
}

func TestProcess_UnknownFile(t *testing.T) {
	th := newTestThumbnailer(&mockFileRepo{}, newMemStore())

	err := th.Process(context.Background(), queue.ThumbnailJob{UserID: "user-1", FileID: "nope"})
	if err == nil {
		t.Error("expected error for unknown file")
	}
}

func TestProcess_ForgedOwnerResolvesNothing(t *testing.T) {
	// The scoped lookup returns not-found when the job's user does not own
	// the file; no variant is written.
	store := newMemStore()
	store.data["key-1"] = pngBytes(t, 600, 600)

	repo := &mockFileRepo{
		findByIDAndOwnerFn: func(ctx context.Context, id, userID string) (*files.File, error) {
			if userID != "user-1" {
				return nil, apperror.NewNotFound("Not found")
			}
			return &files.File{ID: id, UserID: userID, Name: "cat.png", Type: files.TypeImage, LocalPath: "key-1"}, nil
		},
	}

	th := newTestThumbnailer(repo, store)
	err := th.Process(context.Background(), queue.ThumbnailJob{UserID: "attacker", FileID: "file-1"})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(store.data) != 1 {
		t.Error("variants written for a forged job")
	}
}

func TestProcess_RejectsNonImage(t *testing.T) {
	store := newMemStore()
	store.data["key-1"] = []byte("plain text")

	repo := &mockFileRepo{
		findByIDAndOwnerFn: func(ctx context.Context, id, userID string) (*files.File, error) {
			return &files.File{ID: id, UserID: userID, Name: "a.txt", Type: files.TypeFile, LocalPath: "key-1"}, nil
		},
	}

	th := newTestThumbnailer(repo, store)
	err := th.Process(context.Background(), queue.ThumbnailJob{UserID: "user-1", FileID: "file-1"})
	if err == nil {
		t.Error("expected error for non-image file")
	}
}

func TestProcess_UndecodablePayload(t *testing.T) {
	store := newMemStore()
	store.data["key-1"] = []byte("not an image at all")

	repo := &mockFileRepo{
		findByIDAndOwnerFn: func(ctx context.Context, id, userID string) (*files.File, error) {
			return &files.File{ID: id, UserID: userID, Name: "cat.png", Type: files.TypeImage, LocalPath: "key-1"}, nil
		},
	}

	th := newTestThumbnailer(repo, store)
	err := th.Process(context.Background(), queue.ThumbnailJob{UserID: "user-1", FileID: "file-1"})
	if err == nil {
		t.Error("expected error for undecodable payload")
	}

	if len(store.data) != 1 {
		t.Error("variants written for undecodable payload")
	}
}

func TestProcess_EmptyJobFields(t *testing.T) {
	th := newTestThumbnailer(&mockFileRepo{}, newMemStore())

	if err := th.Process(context.Background(), queue.ThumbnailJob{FileID: "file-1"}); err == nil {
		t.Error("expected error for missing user id")
	}
	if err := th.Process(context.Background(), queue.ThumbnailJob{UserID: "user-1"}); err == nil {
		t.Error("expected error for missing file id")
	}
}
