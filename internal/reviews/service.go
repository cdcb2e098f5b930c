package reviews

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mjholt/waypost/internal/apperror"
	"github.com/mjholt/waypost/internal/sanitize"
)

// ReviewService defines the business logic contract for reviews.
type ReviewService interface {
	Create(ctx context.Context, input CreateInput) (*Review, error)
	ListForCampground(ctx context.Context, campgroundID string) ([]*Review, error)
	Delete(ctx context.Context, reviewID, campgroundID, actorID string, isAdmin bool) error
}

// reviewService implements ReviewService.
type reviewService struct {
	repo ReviewRepository
}

// NewReviewService creates a new review service.
func NewReviewService(repo ReviewRepository) ReviewService {
	return &reviewService{repo: repo}
}

// Create stores a new review against a campground.
func (s *reviewService) Create(ctx context.Context, input CreateInput) (*Review, error) {
	review := &Review{
		ID:           uuid.NewString(),
		CampgroundID: input.CampgroundID,
		Body:         sanitize.Text(input.Body),
		Rating:       input.Rating,
		AuthorID:     &input.AuthorID,
	}

	if err := s.repo.Create(ctx, review); err != nil {
		if apperror.IsNotFound(err) {
			return nil, err
		}
		return nil, apperror.NewInternal(fmt.Errorf("creating review: %w", err))
	}

	slog.Info("review created",
		slog.String("review_id", review.ID),
		slog.String("campground_id", review.CampgroundID),
		slog.Int("rating", review.Rating),
	)

	return review, nil
}

// ListForCampground returns a campground's reviews, newest first.
func (s *reviewService) ListForCampground(ctx context.Context, campgroundID string) ([]*Review, error) {
	list, err := s.repo.ListForCampground(ctx, campgroundID)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing reviews: %w", err))
	}
	return list, nil
}

// Delete removes a review after an authorization check: the review's
// author, the campground's owner, and admins may delete.
func (s *reviewService) Delete(ctx context.Context, reviewID, campgroundID, actorID string, isAdmin bool) error {
	review, err := s.repo.FindByID(ctx, reviewID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return err
		}
		return apperror.NewInternal(fmt.Errorf("finding review: %w", err))
	}

	// Reviews are addressed under their campground; a mismatched pair is
	// treated as not found rather than leaking the review's real home.
	if review.CampgroundID != campgroundID {
		return apperror.NewNotFound("review not found")
	}

	if !canDelete(review, actorID, isAdmin) {
		return apperror.NewForbidden("you do not have permission to delete this review")
	}

	if err := s.repo.Delete(ctx, reviewID); err != nil {
		if apperror.IsNotFound(err) {
			return err
		}
		return apperror.NewInternal(fmt.Errorf("deleting review: %w", err))
	}

	slog.Info("review deleted",
		slog.String("review_id", reviewID),
		slog.String("actor_id", actorID),
	)

	return nil
}

// canDelete implements the review deletion policy.
func canDelete(review *Review, actorID string, isAdmin bool) bool {
	if actorID == "" {
		return false
	}
	if isAdmin {
		return true
	}
	if review.AuthorID != nil && *review.AuthorID == actorID {
		return true
	}
	return review.CampgroundAuthorID != nil && *review.CampgroundAuthorID == actorID
}
