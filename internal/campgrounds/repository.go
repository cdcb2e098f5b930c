package campgrounds

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mjholt/waypost/internal/apperror"
)

// CampgroundRepository defines the data access contract for campgrounds and
// their images. Mutations that touch multiple tables run in one transaction.
type CampgroundRepository interface {
	Create(ctx context.Context, c *Campground) error
	FindByID(ctx context.Context, id string) (*Campground, error)
	ListAll(ctx context.Context) ([]*Campground, error)
	Update(ctx context.Context, c *Campground, addImages []Image, removeImageIDs []string) (removedFiles []string, err error)
	Delete(ctx context.Context, id string) (imageFiles []string, err error)
}

// campgroundRepository is the MariaDB implementation of CampgroundRepository.
type campgroundRepository struct {
	db *sql.DB
}

// NewCampgroundRepository creates a new MariaDB-backed campground repository.
func NewCampgroundRepository(db *sql.DB) CampgroundRepository {
	return &campgroundRepository{db: db}
}

// Create inserts a campground and its initial images in one transaction.
func (r *campgroundRepository) Create(ctx context.Context, c *Campground) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO campgrounds (id, title, location, price, description, author_id)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.Title, c.Location, c.Price, c.Description, c.AuthorID,
	)
	if err != nil {
		return fmt.Errorf("inserting campground: %w", err)
	}

	if err = insertImages(ctx, tx, c.ID, c.Images); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// FindByID retrieves a campground with its author name and images populated.
func (r *campgroundRepository) FindByID(ctx context.Context, id string) (*Campground, error) {
	query := `SELECT c.id, c.title, c.location, c.price, c.description,
		c.author_id, u.display_name, c.review_count, c.created_at, c.updated_at
		FROM campgrounds c
		LEFT JOIN users u ON u.id = c.author_id
		WHERE c.id = ?`

	c := &Campground{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.Title, &c.Location, &c.Price, &c.Description,
		&c.AuthorID, &c.AuthorName, &c.ReviewCount, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("campground not found")
	}
	if err != nil {
		return nil, fmt.Errorf("scanning campground: %w", err)
	}

	c.Images, err = r.imagesFor(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListAll returns every campground, newest first, each with its images.
func (r *campgroundRepository) ListAll(ctx context.Context) ([]*Campground, error) {
	query := `SELECT c.id, c.title, c.location, c.price, c.description,
		c.author_id, u.display_name, c.review_count, c.created_at, c.updated_at
		FROM campgrounds c
		LEFT JOIN users u ON u.id = c.author_id
		ORDER BY c.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing campgrounds: %w", err)
	}
	defer rows.Close()

	var list []*Campground
	byID := make(map[string]*Campground)
	for rows.Next() {
		c := &Campground{}
		err := rows.Scan(
			&c.ID, &c.Title, &c.Location, &c.Price, &c.Description,
			&c.AuthorID, &c.AuthorName, &c.ReviewCount, &c.CreatedAt, &c.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning campground row: %w", err)
		}
		list = append(list, c)
		byID[c.ID] = c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating campgrounds: %w", err)
	}

	if len(list) == 0 {
		return list, nil
	}

	// One follow-up query attaches all images instead of N per-row queries.
	imgRows, err := r.db.QueryContext(ctx,
		`SELECT id, campground_id, filename, thumb_filename, position
		FROM campground_images ORDER BY campground_id, position`)
	if err != nil {
		return nil, fmt.Errorf("listing images: %w", err)
	}
	defer imgRows.Close()

	for imgRows.Next() {
		var img Image
		if err := imgRows.Scan(&img.ID, &img.CampgroundID, &img.Filename,
			&img.ThumbFilename, &img.Position); err != nil {
			return nil, fmt.Errorf("scanning image row: %w", err)
		}
		if c, ok := byID[img.CampgroundID]; ok {
			c.Images = append(c.Images, img)
		}
	}
	if err := imgRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating images: %w", err)
	}

	return list, nil
}

// Update rewrites a campground's scalar fields, inserts new images, and
// removes checked ones, all in a single transaction. It returns the
// filenames of removed images so the caller can clean up the disk.
func (r *campgroundRepository) Update(ctx context.Context, c *Campground, addImages []Image, removeImageIDs []string) (removedFiles []string, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`UPDATE campgrounds SET title = ?, location = ?, price = ?, description = ?
		WHERE id = ?`,
		c.Title, c.Location, c.Price, c.Description, c.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating campground: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Row may exist with identical values; verify it is really gone.
		var exists int
		if scanErr := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM campgrounds WHERE id = ?`, c.ID).Scan(&exists); scanErr != nil {
			return nil, fmt.Errorf("checking campground existence: %w", scanErr)
		}
		if exists == 0 {
			err = apperror.NewNotFound("campground not found")
			return nil, err
		}
	}

	for _, imgID := range removeImageIDs {
		var filename, thumb string
		scanErr := tx.QueryRowContext(ctx,
			`SELECT filename, thumb_filename FROM campground_images
			WHERE id = ? AND campground_id = ?`, imgID, c.ID,
		).Scan(&filename, &thumb)
		if errors.Is(scanErr, sql.ErrNoRows) {
			continue
		}
		if scanErr != nil {
			return nil, fmt.Errorf("looking up image %s: %w", imgID, scanErr)
		}

		if _, err = tx.ExecContext(ctx,
			`DELETE FROM campground_images WHERE id = ?`, imgID); err != nil {
			return nil, fmt.Errorf("deleting image %s: %w", imgID, err)
		}
		removedFiles = append(removedFiles, filename, thumb)
	}

	if err = insertImages(ctx, tx, c.ID, addImages); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return removedFiles, nil
}

// Delete removes a campground together with its reviews and image rows in
// one transaction, returning image filenames for disk cleanup.
func (r *campgroundRepository) Delete(ctx context.Context, id string) (imageFiles []string, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	rows, err := tx.QueryContext(ctx,
		`SELECT filename, thumb_filename FROM campground_images WHERE campground_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("listing images for delete: %w", err)
	}
	for rows.Next() {
		var filename, thumb string
		if err = rows.Scan(&filename, &thumb); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning image filenames: %w", err)
		}
		imageFiles = append(imageFiles, filename, thumb)
	}
	if err = rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating image filenames: %w", err)
	}
	rows.Close()

	if _, err = tx.ExecContext(ctx,
		`DELETE FROM reviews WHERE campground_id = ?`, id); err != nil {
		return nil, fmt.Errorf("deleting reviews: %w", err)
	}
	if _, err = tx.ExecContext(ctx,
		`DELETE FROM campground_images WHERE campground_id = ?`, id); err != nil {
		return nil, fmt.Errorf("deleting images: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM campgrounds WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("deleting campground: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = apperror.NewNotFound("campground not found")
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return imageFiles, nil
}

// imagesFor loads the ordered images of one campground.
func (r *campgroundRepository) imagesFor(ctx context.Context, campgroundID string) ([]Image, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, campground_id, filename, thumb_filename, position
		FROM campground_images WHERE campground_id = ? ORDER BY position`, campgroundID)
	if err != nil {
		return nil, fmt.Errorf("listing images: %w", err)
	}
	defer rows.Close()

	var images []Image
	for rows.Next() {
		var img Image
		if err := rows.Scan(&img.ID, &img.CampgroundID, &img.Filename,
			&img.ThumbFilename, &img.Position); err != nil {
			return nil, fmt.Errorf("scanning image: %w", err)
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating images: %w", err)
	}
	return images, nil
}

// insertImages appends image rows for a campground inside an open transaction.
func insertImages(ctx context.Context, tx *sql.Tx, campgroundID string, images []Image) error {
	for _, img := range images {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO campground_images (id, campground_id, filename, thumb_filename, position)
			VALUES (?, ?, ?, ?, ?)`,
			img.ID, campgroundID, img.Filename, img.ThumbFilename, img.Position,
		)
		if err != nil {
			return fmt.Errorf("inserting image: %w", err)
		}
	}
	return nil
}
