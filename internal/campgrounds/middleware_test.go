package campgrounds

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/mjholt/waypost/internal/flash"
	"github.com/mjholt/waypost/internal/media"
)

func newOwnershipFixture(t *testing.T, repo CampgroundRepository) (echo.MiddlewareFunc, *flash.Store) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	flashes := flash.NewStore(rdb)
	svc := NewCampgroundService(repo, media.NewService(t.TempDir(), 5<<20), 8)
	return RequireOwnership(svc, flashes), flashes
}

func ownershipRequest(t *testing.T, id, userID string, isAdmin bool) (echo.Context, *httptest.ResponseRecorder, *bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/campgrounds/"+id+"/edit", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id)
	if userID != "" {
		c.Set("user_id", userID)
	}
	c.Set("is_admin", isAdmin)

	reached := false
	return c, rec, &reached
}

func ownedCampground(owner string) *Campground {
	cg := &Campground{ID: "cg-1", Title: "Riverbend"}
	if owner != "" {
		cg.AuthorID = &owner
	}
	return cg
}

func TestRequireOwnership_MissingCampground(t *testing.T) {
	mw, _ := newOwnershipFixture(t, &mockCampgroundRepository{})
	c, rec, reached := ownershipRequest(t, "nope", "user-1", false)

	next := func(c echo.Context) error { *reached = true; return nil }
	if err := mw(next)(c); err != nil {
		t.Fatalf("RequireOwnership: %v", err)
	}

	if *reached {
		t.Error("handler should not run for a missing campground")
	}
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/campgrounds" {
		t.Errorf("expected redirect to /campgrounds, got %d %q",
			rec.Code, rec.Header().Get("Location"))
	}
}

func TestRequireOwnership_NonOwnerRedirected(t *testing.T) {
	repo := &mockCampgroundRepository{
		findByIDFunc: func(ctx context.Context, id string) (*Campground, error) {
			return ownedCampground("someone-else"), nil
		},
	}
	mw, _ := newOwnershipFixture(t, repo)
	c, rec, reached := ownershipRequest(t, "cg-1", "user-1", false)

	next := func(c echo.Context) error { *reached = true; return nil }
	if err := mw(next)(c); err != nil {
		t.Fatalf("RequireOwnership: %v", err)
	}

	if *reached {
		t.Error("handler should not run for a non-owner")
	}
	if loc := rec.Header().Get("Location"); loc != "/campgrounds/cg-1" {
		t.Errorf("expected redirect back to the campground, got %q", loc)
	}
}

func TestRequireOwnership_OwnerPasses(t *testing.T) {
	repo := &mockCampgroundRepository{
		findByIDFunc: func(ctx context.Context, id string) (*Campground, error) {
			return ownedCampground("user-1"), nil
		},
	}
	mw, _ := newOwnershipFixture(t, repo)
	c, _, reached := ownershipRequest(t, "cg-1", "user-1", false)

	next := func(c echo.Context) error { *reached = true; return nil }
	if err := mw(next)(c); err != nil {
		t.Fatalf("RequireOwnership: %v", err)
	}

	if !*reached {
		t.Fatal("owner should reach the handler")
	}
	if GetLoaded(c) == nil {
		t.Error("expected the loaded campground in the echo context")
	}
}

func TestRequireOwnership_AdminPassesForAuthorless(t *testing.T) {
	repo := &mockCampgroundRepository{
		findByIDFunc: func(ctx context.Context, id string) (*Campground, error) {
			return ownedCampground(""), nil
		},
	}
	mw, _ := newOwnershipFixture(t, repo)

	// A regular user cannot touch an author-less campground.
	c, rec, reached := ownershipRequest(t, "cg-1", "user-1", false)
	next := func(c echo.Context) error { *reached = true; return nil }
	if err := mw(next)(c); err != nil {
		t.Fatalf("RequireOwnership: %v", err)
	}
	if *reached {
		t.Error("regular user should not modify an author-less campground")
	}
	if rec.Code != http.StatusSeeOther {
		t.Errorf("expected redirect, got %d", rec.Code)
	}

	// An admin can.
	c, _, reached = ownershipRequest(t, "cg-1", "admin-1", true)
	if err := mw(next)(c); err != nil {
		t.Fatalf("RequireOwnership: %v", err)
	}
	if !*reached {
		t.Error("admin should reach the handler for an author-less campground")
	}
}
