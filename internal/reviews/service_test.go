package reviews

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/mjholt/waypost/internal/apperror"
)

type mockReviewRepository struct {
	createFunc func(ctx context.Context, r *Review) error
	findFunc   func(ctx context.Context, id string) (*Review, error)
	listFunc   func(ctx context.Context, campgroundID string) ([]*Review, error)
	deleteFunc func(ctx context.Context, id string) error
}

func (m *mockReviewRepository) Create(ctx context.Context, r *Review) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, r)
	}
	return nil
}

func (m *mockReviewRepository) FindByID(ctx context.Context, id string) (*Review, error) {
	if m.findFunc != nil {
		return m.findFunc(ctx, id)
	}
	return nil, apperror.NewNotFound("review not found")
}

func (m *mockReviewRepository) ListForCampground(ctx context.Context, campgroundID string) ([]*Review, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, campgroundID)
	}
	return nil, nil
}

func (m *mockReviewRepository) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func strPtr(s string) *string { return &s }

func assertCode(t *testing.T, err error, wantCode int) {
	t.Helper()
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperror.AppError with code %d, got %v", wantCode, err)
	}
	if appErr.Code != wantCode {
		t.Fatalf("expected code %d, got %d", wantCode, appErr.Code)
	}
}

func TestCreate_SanitizesBody(t *testing.T) {
	var created *Review
	repo := &mockReviewRepository{
		createFunc: func(ctx context.Context, r *Review) error {
			created = r
			return nil
		},
	}
	svc := NewReviewService(repo)

	review, err := svc.Create(context.Background(), CreateInput{
		CampgroundID: "cg-1",
		Body:         "Great spot <img src=x onerror=alert(1)>",
		Rating:       5,
		AuthorID:     "user-1",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if created.Body != "Great spot" {
		t.Errorf("expected markup stripped, got %q", created.Body)
	}
	if review.ID == "" {
		t.Error("expected a generated review ID")
	}
	if review.AuthorID == nil || *review.AuthorID != "user-1" {
		t.Error("expected author to be recorded")
	}
}

func TestCreate_MissingCampground(t *testing.T) {
	repo := &mockReviewRepository{
		createFunc: func(ctx context.Context, r *Review) error {
			return apperror.NewNotFound("campground not found")
		},
	}
	svc := NewReviewService(repo)

	_, err := svc.Create(context.Background(), CreateInput{
		CampgroundID: "gone",
		Body:         "nice",
		Rating:       4,
		AuthorID:     "user-1",
	})
	assertCode(t, err, http.StatusNotFound)
}

func storedReview() *Review {
	return &Review{
		ID:                 "rev-1",
		CampgroundID:       "cg-1",
		Body:               "Lovely",
		Rating:             5,
		AuthorID:           strPtr("author-1"),
		CampgroundAuthorID: strPtr("owner-1"),
	}
}

func TestDelete_Policy(t *testing.T) {
	cases := []struct {
		name     string
		actorID  string
		isAdmin  bool
		wantCode int // 0 means allowed
	}{
		{name: "review author", actorID: "author-1"},
		{name: "campground owner", actorID: "owner-1"},
		{name: "admin", actorID: "admin-1", isAdmin: true},
		{name: "unrelated user", actorID: "stranger", wantCode: http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			deleted := false
			repo := &mockReviewRepository{
				findFunc: func(ctx context.Context, id string) (*Review, error) {
					return storedReview(), nil
				},
				deleteFunc: func(ctx context.Context, id string) error {
					deleted = true
					return nil
				},
			}
			svc := NewReviewService(repo)

			err := svc.Delete(context.Background(), "rev-1", "cg-1", tc.actorID, tc.isAdmin)
			if tc.wantCode == 0 {
				if err != nil {
					t.Fatalf("expected delete to succeed, got %v", err)
				}
				if !deleted {
					t.Fatal("expected repository Delete to be called")
				}
				return
			}

			assertCode(t, err, tc.wantCode)
			if deleted {
				t.Error("repository Delete must not run when authorization fails")
			}
		})
	}
}

func TestDelete_AuthorlessReview(t *testing.T) {
	review := storedReview()
	review.AuthorID = nil

	repo := &mockReviewRepository{
		findFunc: func(ctx context.Context, id string) (*Review, error) {
			return review, nil
		},
	}
	svc := NewReviewService(repo)

	// Author-less reviews are still governed by the owner and admin rules.
	if err := svc.Delete(context.Background(), "rev-1", "cg-1", "owner-1", false); err != nil {
		t.Errorf("campground owner should delete an author-less review: %v", err)
	}

	err := svc.Delete(context.Background(), "rev-1", "cg-1", "stranger", false)
	assertCode(t, err, http.StatusForbidden)
}

func TestDelete_CampgroundMismatch(t *testing.T) {
	repo := &mockReviewRepository{
		findFunc: func(ctx context.Context, id string) (*Review, error) {
			return storedReview(), nil
		},
	}
	svc := NewReviewService(repo)

	err := svc.Delete(context.Background(), "rev-1", "different-campground", "author-1", false)
	assertCode(t, err, http.StatusNotFound)
}
