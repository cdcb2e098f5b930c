package reviews

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mjholt/waypost/internal/apperror"
)

// ReviewRepository defines the data access contract for reviews. Create and
// Delete maintain the campground's review_count atomically.
type ReviewRepository interface {
	Create(ctx context.Context, r *Review) error
	FindByID(ctx context.Context, id string) (*Review, error)
	ListForCampground(ctx context.Context, campgroundID string) ([]*Review, error)
	Delete(ctx context.Context, id string) error
}

// reviewRepository is the MariaDB implementation of ReviewRepository.
type reviewRepository struct {
	db *sql.DB
}

// NewReviewRepository creates a new MariaDB-backed review repository.
func NewReviewRepository(db *sql.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

// Create inserts a review and bumps the campground's review count in one
// transaction. A missing campground yields a not-found error.
func (r *reviewRepository) Create(ctx context.Context, review *Review) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	// The count bump doubles as the existence check: zero rows affected
	// means the campground is gone.
	res, err := tx.ExecContext(ctx,
		`UPDATE campgrounds SET review_count = review_count + 1 WHERE id = ?`,
		review.CampgroundID,
	)
	if err != nil {
		return fmt.Errorf("bumping review count: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = apperror.NewNotFound("campground not found")
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO reviews (id, campground_id, body, rating, author_id)
		VALUES (?, ?, ?, ?, ?)`,
		review.ID, review.CampgroundID, review.Body, review.Rating, review.AuthorID,
	)
	if err != nil {
		return fmt.Errorf("inserting review: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// reviewColumns joins in the review author's name and the campground
// owner's ID for authorization decisions.
const reviewColumns = `r.id, r.campground_id, r.body, r.rating,
	r.author_id, u.display_name, c.author_id, r.created_at
	FROM reviews r
	LEFT JOIN users u ON u.id = r.author_id
	JOIN campgrounds c ON c.id = r.campground_id`

// FindByID retrieves one review with author and campground-owner context.
func (r *reviewRepository) FindByID(ctx context.Context, id string) (*Review, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+reviewColumns+` WHERE r.id = ?`, id)

	review := &Review{}
	err := row.Scan(
		&review.ID, &review.CampgroundID, &review.Body, &review.Rating,
		&review.AuthorID, &review.AuthorName, &review.CampgroundAuthorID,
		&review.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("review not found")
	}
	if err != nil {
		return nil, fmt.Errorf("scanning review: %w", err)
	}
	return review, nil
}

// ListForCampground returns a campground's reviews, newest first.
func (r *reviewRepository) ListForCampground(ctx context.Context, campgroundID string) ([]*Review, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+reviewColumns+` WHERE r.campground_id = ? ORDER BY r.created_at DESC`,
		campgroundID)
	if err != nil {
		return nil, fmt.Errorf("listing reviews: %w", err)
	}
	defer rows.Close()

	var list []*Review
	for rows.Next() {
		review := &Review{}
		err := rows.Scan(
			&review.ID, &review.CampgroundID, &review.Body, &review.Rating,
			&review.AuthorID, &review.AuthorName, &review.CampgroundAuthorID,
			&review.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning review row: %w", err)
		}
		list = append(list, review)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating reviews: %w", err)
	}
	return list, nil
}

// Delete removes a review and decrements the campground's review count in
// one transaction.
func (r *reviewRepository) Delete(ctx context.Context, id string) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var campgroundID string
	err = tx.QueryRowContext(ctx,
		`SELECT campground_id FROM reviews WHERE id = ?`, id).Scan(&campgroundID)
	if errors.Is(err, sql.ErrNoRows) {
		err = apperror.NewNotFound("review not found")
		return err
	}
	if err != nil {
		return fmt.Errorf("looking up review: %w", err)
	}

	if _, err = tx.ExecContext(ctx,
		`DELETE FROM reviews WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting review: %w", err)
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE campgrounds SET review_count = review_count - 1
		WHERE id = ? AND review_count > 0`, campgroundID); err != nil {
		return fmt.Errorf("decrementing review count: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
