package campgrounds

import (
	"context"
	"fmt"
	"log/slog"
	"mime/multipart"

	"github.com/google/uuid"

	"github.com/mjholt/waypost/internal/apperror"
	"github.com/mjholt/waypost/internal/media"
	"github.com/mjholt/waypost/internal/sanitize"
)

// CampgroundService defines the business logic contract for campgrounds.
type CampgroundService interface {
	List(ctx context.Context) ([]*Campground, error)
	Get(ctx context.Context, id string) (*Campground, error)
	Create(ctx context.Context, input CreateInput, authorID string) (*Campground, error)
	Update(ctx context.Context, existing *Campground, input UpdateInput) error
	Delete(ctx context.Context, id string) error
}

// campgroundService implements CampgroundService. It owns the coordination
// between the database and the media store: uploads are written to disk
// first, and rolled back if the database transaction fails.
type campgroundService struct {
	repo      CampgroundRepository
	media     *media.Service
	maxImages int
}

// NewCampgroundService creates a new campground service.
func NewCampgroundService(repo CampgroundRepository, mediaSvc *media.Service, maxImages int) CampgroundService {
	return &campgroundService{
		repo:      repo,
		media:     mediaSvc,
		maxImages: maxImages,
	}
}

// List returns all campgrounds, newest first.
func (s *campgroundService) List(ctx context.Context) ([]*Campground, error) {
	list, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing campgrounds: %w", err))
	}
	return list, nil
}

// Get returns a single campground by ID.
func (s *campgroundService) Get(ctx context.Context, id string) (*Campground, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, err
		}
		return nil, apperror.NewInternal(fmt.Errorf("finding campground: %w", err))
	}
	return c, nil
}

// Create stores a new campground with its uploaded photos.
func (s *campgroundService) Create(ctx context.Context, input CreateInput, authorID string) (*Campground, error) {
	if len(input.Uploads) > s.maxImages {
		return nil, apperror.NewBadRequest(
			fmt.Sprintf("a campground can have at most %d images", s.maxImages))
	}

	images, storedFiles, err := s.storeUploads(input.Uploads, 0)
	if err != nil {
		return nil, err
	}

	c := &Campground{
		ID:          uuid.NewString(),
		Title:       sanitize.Text(input.Title),
		Location:    sanitize.Text(input.Location),
		Price:       input.Price,
		Description: sanitize.Text(input.Description),
		AuthorID:    &authorID,
		Images:      images,
	}

	if err := s.repo.Create(ctx, c); err != nil {
		s.media.Remove(storedFiles...)
		return nil, apperror.NewInternal(fmt.Errorf("creating campground: %w", err))
	}

	slog.Info("campground created",
		slog.String("campground_id", c.ID),
		slog.String("author_id", authorID),
		slog.Int("images", len(images)),
	)

	return c, nil
}

// Update applies edits to an existing campground: scalar fields, new
// uploads, and removal of checked images.
func (s *campgroundService) Update(ctx context.Context, existing *Campground, input UpdateInput) error {
	keep := len(existing.Images) - len(input.RemoveImages)
	if keep < 0 {
		keep = 0
	}
	if keep+len(input.Uploads) > s.maxImages {
		return apperror.NewBadRequest(
			fmt.Sprintf("a campground can have at most %d images", s.maxImages))
	}

	nextPos := 0
	for _, img := range existing.Images {
		if img.Position >= nextPos {
			nextPos = img.Position + 1
		}
	}

	addImages, storedFiles, err := s.storeUploads(input.Uploads, nextPos)
	if err != nil {
		return err
	}

	updated := &Campground{
		ID:          existing.ID,
		Title:       sanitize.Text(input.Title),
		Location:    sanitize.Text(input.Location),
		Price:       input.Price,
		Description: sanitize.Text(input.Description),
	}

	removedFiles, err := s.repo.Update(ctx, updated, addImages, input.RemoveImages)
	if err != nil {
		s.media.Remove(storedFiles...)
		if apperror.IsNotFound(err) {
			return err
		}
		return apperror.NewInternal(fmt.Errorf("updating campground: %w", err))
	}

	s.media.Remove(removedFiles...)

	slog.Info("campground updated",
		slog.String("campground_id", existing.ID),
		slog.Int("images_added", len(addImages)),
		slog.Int("images_removed", len(input.RemoveImages)),
	)

	return nil
}

// Delete removes a campground, its reviews, and its images. Database rows
// go first in one transaction; disk files are cleaned up afterwards.
func (s *campgroundService) Delete(ctx context.Context, id string) error {
	imageFiles, err := s.repo.Delete(ctx, id)
	if err != nil {
		if apperror.IsNotFound(err) {
			return err
		}
		return apperror.NewInternal(fmt.Errorf("deleting campground: %w", err))
	}

	s.media.Remove(imageFiles...)

	slog.Info("campground deleted", slog.String("campground_id", id))
	return nil
}

// storeUploads writes each upload to the media store, assigning positions
// starting at startPos. On any failure the files stored so far are removed.
func (s *campgroundService) storeUploads(uploads []*multipart.FileHeader, startPos int) ([]Image, []string, error) {
	var images []Image
	var storedFiles []string

	for i, header := range uploads {
		stored, err := s.media.Save(header)
		if err != nil {
			s.media.Remove(storedFiles...)
			return nil, nil, err
		}
		storedFiles = append(storedFiles, stored.Filename, stored.ThumbFilename)
		images = append(images, Image{
			ID:            uuid.NewString(),
			Filename:      stored.Filename,
			ThumbFilename: stored.ThumbFilename,
			Position:      startPos + i,
		})
	}

	return images, storedFiles, nil
}
