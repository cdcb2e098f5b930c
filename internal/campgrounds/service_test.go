package campgrounds

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/mjholt/waypost/internal/apperror"
	"github.com/mjholt/waypost/internal/media"
)

type mockCampgroundRepository struct {
	createFunc   func(ctx context.Context, c *Campground) error
	findByIDFunc func(ctx context.Context, id string) (*Campground, error)
	listAllFunc  func(ctx context.Context) ([]*Campground, error)
	updateFunc   func(ctx context.Context, c *Campground, addImages []Image, removeImageIDs []string) ([]string, error)
	deleteFunc   func(ctx context.Context, id string) ([]string, error)
}

func (m *mockCampgroundRepository) Create(ctx context.Context, c *Campground) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, c)
	}
	return nil
}

func (m *mockCampgroundRepository) FindByID(ctx context.Context, id string) (*Campground, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, apperror.NewNotFound("campground not found")
}

func (m *mockCampgroundRepository) ListAll(ctx context.Context) ([]*Campground, error) {
	if m.listAllFunc != nil {
		return m.listAllFunc(ctx)
	}
	return nil, nil
}

func (m *mockCampgroundRepository) Update(ctx context.Context, c *Campground, addImages []Image, removeImageIDs []string) ([]string, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, c, addImages, removeImageIDs)
	}
	return nil, nil
}

func (m *mockCampgroundRepository) Delete(ctx context.Context, id string) ([]string, error) {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil, nil
}

// uploadFixture builds a real *multipart.FileHeader containing a small PNG.
func uploadFixture(t *testing.T) *multipart.FileHeader {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	for y := 0; y < 30; y++ {
		for x := 0; x < 40; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 150, B: 90, A: 255})
		}
	}
	var pngBuf bytes.Buffer
	if err := png.Encode(&pngBuf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("images", "site.png")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	part.Write(pngBuf.Bytes())
	mw.Close()

	req, err := http.NewRequest(http.MethodPost, "/", &body)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if err := req.ParseMultipartForm(32 << 20); err != nil {
		t.Fatalf("ParseMultipartForm: %v", err)
	}
	return req.MultipartForm.File["images"][0]
}

func countMediaFiles(t *testing.T, dir string) int {
	t.Helper()
	count := 0
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			count++
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walking media dir: %v", err)
	}
	return count
}

func newTestCampgroundService(t *testing.T, repo CampgroundRepository) (CampgroundService, string) {
	t.Helper()
	dir := t.TempDir()
	return NewCampgroundService(repo, media.NewService(dir, 5<<20), 8), dir
}

func TestCreate_SanitizesAndStoresImages(t *testing.T) {
	var created *Campground
	repo := &mockCampgroundRepository{
		createFunc: func(ctx context.Context, c *Campground) error {
			created = c
			return nil
		},
	}
	svc, dir := newTestCampgroundService(t, repo)

	cg, err := svc.Create(context.Background(), CreateInput{
		Title:       "Lakeside <script>alert(1)</script>",
		Location:    "North Shore",
		Price:       29.50,
		Description: "Quiet spot <b>with</b> great views",
		Uploads:     []*multipart.FileHeader{uploadFixture(t)},
	}, "user-1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if created == nil {
		t.Fatal("expected repository Create to be called")
	}
	if created.Title != "Lakeside" {
		t.Errorf("expected script tags stripped, got %q", created.Title)
	}
	if created.Description != "Quiet spot with great views" {
		t.Errorf("expected markup stripped, got %q", created.Description)
	}
	if created.AuthorID == nil || *created.AuthorID != "user-1" {
		t.Error("expected author to be recorded")
	}
	if len(cg.Images) != 1 {
		t.Fatalf("expected 1 image, got %d", len(cg.Images))
	}
	// Original plus generated thumbnail.
	if got := countMediaFiles(t, dir); got != 2 {
		t.Errorf("expected 2 files on disk, got %d", got)
	}
}

func TestCreate_RollsBackFilesOnRepoFailure(t *testing.T) {
	repo := &mockCampgroundRepository{
		createFunc: func(ctx context.Context, c *Campground) error {
			return errors.New("connection lost")
		},
	}
	svc, dir := newTestCampgroundService(t, repo)

	_, err := svc.Create(context.Background(), CreateInput{
		Title:    "Doomed",
		Location: "Nowhere",
		Price:    10,
		Uploads:  []*multipart.FileHeader{uploadFixture(t)},
	}, "user-1")
	if err == nil {
		t.Fatal("expected an error")
	}

	if got := countMediaFiles(t, dir); got != 0 {
		t.Errorf("expected stored files to be rolled back, %d remain", got)
	}
}

func TestCreate_RejectsTooManyImages(t *testing.T) {
	svc := NewCampgroundService(&mockCampgroundRepository{},
		media.NewService(t.TempDir(), 5<<20), 1)

	_, err := svc.Create(context.Background(), CreateInput{
		Title:    "Overloaded",
		Location: "Somewhere",
		Price:    10,
		Uploads:  []*multipart.FileHeader{uploadFixture(t), uploadFixture(t)},
	}, "user-1")

	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || appErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for exceeding image limit, got %v", err)
	}
}

func TestUpdate_EnforcesImageCapAcrossExisting(t *testing.T) {
	existing := &Campground{
		ID:     "cg-1",
		Images: []Image{{ID: "img-1", Position: 0}},
	}
	svc := NewCampgroundService(&mockCampgroundRepository{},
		media.NewService(t.TempDir(), 5<<20), 1)

	err := svc.Update(context.Background(), existing, UpdateInput{
		Title:    "Full",
		Location: "Somewhere",
		Price:    10,
		Uploads:  []*multipart.FileHeader{uploadFixture(t)},
	})
	if err == nil {
		t.Fatal("expected image cap violation")
	}

	// Removing the existing image frees a slot for the new upload.
	err = svc.Update(context.Background(), existing, UpdateInput{
		Title:        "Full",
		Location:     "Somewhere",
		Price:        10,
		Uploads:      []*multipart.FileHeader{uploadFixture(t)},
		RemoveImages: []string{"img-1"},
	})
	if err != nil {
		t.Fatalf("expected update to pass after removal, got %v", err)
	}
}

func TestUpdate_NewImagesContinuePositions(t *testing.T) {
	existing := &Campground{
		ID:     "cg-1",
		Images: []Image{{ID: "img-1", Position: 0}, {ID: "img-2", Position: 1}},
	}

	var gotAdds []Image
	repo := &mockCampgroundRepository{
		updateFunc: func(ctx context.Context, c *Campground, addImages []Image, removeImageIDs []string) ([]string, error) {
			gotAdds = addImages
			return nil, nil
		},
	}
	svc, _ := newTestCampgroundService(t, repo)

	err := svc.Update(context.Background(), existing, UpdateInput{
		Title:    "Roomy",
		Location: "Somewhere",
		Price:    10,
		Uploads:  []*multipart.FileHeader{uploadFixture(t)},
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(gotAdds) != 1 {
		t.Fatalf("expected 1 new image, got %d", len(gotAdds))
	}
	if gotAdds[0].Position != 2 {
		t.Errorf("expected position 2 after existing images, got %d", gotAdds[0].Position)
	}
}

func TestDelete_CleansUpImageFiles(t *testing.T) {
	// Store a file first so there is something to clean up.
	dir := t.TempDir()
	mediaSvc := media.NewService(dir, 5<<20)
	stored, err := mediaSvc.Save(uploadFixture(t))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	repo := &mockCampgroundRepository{
		deleteFunc: func(ctx context.Context, id string) ([]string, error) {
			return []string{stored.Filename, stored.ThumbFilename}, nil
		},
	}
	svc := NewCampgroundService(repo, mediaSvc, 8)

	if err := svc.Delete(context.Background(), "cg-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if got := countMediaFiles(t, dir); got != 0 {
		t.Errorf("expected image files removed from disk, %d remain", got)
	}
}

func TestGet_PassesThroughNotFound(t *testing.T) {
	svc, _ := newTestCampgroundService(t, &mockCampgroundRepository{})

	_, err := svc.Get(context.Background(), "missing")
	if !apperror.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}
