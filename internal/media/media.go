// Package media stores uploaded campground images on local disk. Files are
// validated by sniffing their actual content, renamed to random IDs, and
// given a downscaled thumbnail for index and card views.
package media

import (
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/image/draw"

	"github.com/mjholt/waypost/internal/apperror"

	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// thumbWidth is the pixel width of generated thumbnails.
const thumbWidth = 400

// sniffLen is how many bytes http.DetectContentType needs.
const sniffLen = 512

// allowedTypes maps sniffed content types to the file extension we store.
var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Stored describes a saved upload. Filenames are relative to the media root
// and safe to embed in URLs under the /media/ prefix.
type Stored struct {
	Filename      string
	ThumbFilename string
}

// Service saves, thumbnails, and removes uploaded images.
type Service struct {
	basePath string
	maxSize  int64
}

// NewService creates a media service rooted at basePath. Files larger than
// maxSize bytes are rejected.
func NewService(basePath string, maxSize int64) *Service {
	return &Service{basePath: basePath, maxSize: maxSize}
}

// Save validates and stores one uploaded file. The stored name is a random
// UUID under a year/month directory, so original filenames never reach the
// filesystem or URLs.
func (s *Service) Save(header *multipart.FileHeader) (*Stored, error) {
	if header.Size > s.maxSize {
		return nil, apperror.NewBadRequest(
			fmt.Sprintf("image %q exceeds the %dMB size limit",
				header.Filename, s.maxSize/(1<<20)))
	}

	src, err := header.Open()
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("opening upload: %w", err))
	}
	defer src.Close()

	// Sniff real content, don't trust the client's declared type.
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(src, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		return nil, apperror.NewBadRequest("uploaded file is empty or unreadable")
	}
	head = head[:n]

	contentType := http.DetectContentType(head)
	ext, ok := allowedTypes[contentType]
	if !ok {
		return nil, apperror.NewBadRequest(
			fmt.Sprintf("image %q is not an accepted format (jpeg, png, gif, webp)",
				header.Filename))
	}

	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("rewinding upload: %w", err))
	}

	subdir := time.Now().UTC().Format("2006/01")
	if err := os.MkdirAll(filepath.Join(s.basePath, subdir), 0o755); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("creating media directory: %w", err))
	}

	id := uuid.NewString()
	relPath := subdir + "/" + id + ext
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(relPath))

	dst, err := os.Create(fullPath)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("creating media file: %w", err))
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(fullPath)
		return nil, apperror.NewInternal(fmt.Errorf("writing media file: %w", err))
	}
	if err := dst.Close(); err != nil {
		os.Remove(fullPath)
		return nil, apperror.NewInternal(fmt.Errorf("closing media file: %w", err))
	}

	thumbRel, err := s.writeThumbnail(fullPath, subdir, id)
	if err != nil {
		// The full-size image is fine, serve it in place of a thumbnail.
		slog.Warn("thumbnail generation failed",
			slog.String("file", relPath),
			slog.Any("error", err),
		)
		thumbRel = relPath
	}

	return &Stored{Filename: relPath, ThumbFilename: thumbRel}, nil
}

// Remove deletes stored files from disk. Missing files are not an error;
// other failures are logged and swallowed since the database rows are
// already gone by the time cleanup runs.
func (s *Service) Remove(filenames ...string) {
	seen := make(map[string]bool, len(filenames))
	for _, name := range filenames {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		if !validRelPath(name) {
			slog.Warn("refusing to remove suspicious media path", slog.String("file", name))
			continue
		}

		fullPath := filepath.Join(s.basePath, filepath.FromSlash(name))
		if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
			slog.Warn("failed to remove media file",
				slog.String("file", name),
				slog.Any("error", err),
			)
		}
	}
}

// writeThumbnail decodes the stored image and writes a downscaled JPEG
// next to it, returning the thumbnail's relative path.
func (s *Service) writeThumbnail(fullPath, subdir, id string) (string, error) {
	f, err := os.Open(fullPath)
	if err != nil {
		return "", fmt.Errorf("opening for thumbnail: %w", err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return "", fmt.Errorf("decoding image: %w", err)
	}

	bounds := src.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width <= 0 || height <= 0 {
		return "", fmt.Errorf("image has empty bounds")
	}

	thumbW := thumbWidth
	if width < thumbW {
		thumbW = width
	}
	thumbH := height * thumbW / width
	if thumbH < 1 {
		thumbH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, thumbW, thumbH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	thumbRel := subdir + "/" + id + "_thumb.jpg"
	out, err := os.Create(filepath.Join(s.basePath, filepath.FromSlash(thumbRel)))
	if err != nil {
		return "", fmt.Errorf("creating thumbnail file: %w", err)
	}

	if err := jpeg.Encode(out, dst, &jpeg.Options{Quality: 82}); err != nil {
		out.Close()
		os.Remove(filepath.Join(s.basePath, filepath.FromSlash(thumbRel)))
		return "", fmt.Errorf("encoding thumbnail: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("closing thumbnail: %w", err)
	}

	return thumbRel, nil
}

// validRelPath rejects anything that could escape the media root.
func validRelPath(name string) bool {
	if strings.Contains(name, "..") || strings.HasPrefix(name, "/") {
		return false
	}
	return filepath.IsLocal(filepath.FromSlash(name))
}
