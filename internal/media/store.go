// Package media stores uploaded sneaker images on the local filesystem.
package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"golang.org/x/image/webp"
)

const (
	// MaxUploadSize bounds how much of an upload is read.
	MaxUploadSize = 10 << 20
	// MaxWidth and MaxHeight form the bounding box for stored images.
	MaxWidth  = 800
	MaxHeight = 800
	// MaxPixels caps the declared dimensions of an upload before decoding.
	MaxPixels = 50_000_000
	// ImageDir is where images live, relative to the public root.
	ImageDir = "uploads/images"
	// PlaceholderURL is shown when a sneaker has no usable image.
	PlaceholderURL = "/static/placeholder.svg"
)

var (
	// ErrUnsupportedType is returned for content that is not a jpeg, png, gif or webp image.
	ErrUnsupportedType = errors.New("unsupported image type")
	// ErrTooLarge is returned for uploads over MaxUploadSize.
	ErrTooLarge = errors.New("image too large")
	// ErrDimensions is returned for images declaring more than MaxPixels.
	ErrDimensions = errors.New("image dimensions too large")
	// ErrOutsideRoot is returned for paths that escape the public root.
	ErrOutsideRoot = errors.New("path outside media root")
)

// extensions maps accepted sniffed types to the stored file extension.
var extensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "png",
}

// Store keeps images under root/ImageDir.
type Store struct {
	root string
}

// NewStore returns a Store rooted at the public directory root.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// Upload is a checked and processed image that has not been written yet.
type Upload struct {
	data []byte
	ext  string
}

// Save prepares r and writes it under a fresh unique name. It returns the
// path relative to the public root.
func (s *Store) Save(r io.Reader) (string, error) {
	u, err := s.Prepare(r)
	if err != nil {
		return "", err
	}
	return s.Write(u)
}

// Prepare validates the uploaded bytes by content and scales the image into
// the bounding box. Nothing touches the disk.
func (s *Store) Prepare(r io.Reader) (*Upload, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) > MaxUploadSize {
		return nil, ErrTooLarge
	}

	mtype := mimetype.Detect(data).String()
	ext, ok := extensions[mtype]
	if !ok {
		return nil, ErrUnsupportedType
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, ErrUnsupportedType
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, ErrDimensions
	}

	out, err := process(mtype, data)
	if err != nil {
		return nil, err
	}
	return &Upload{data: out, ext: ext}, nil
}

// Write stores u as sneaker_<uuid>.<ext> under ImageDir.
func (s *Store) Write(u *Upload) (string, error) {
	rel := path.Join(ImageDir, "sneaker_"+uuid.NewString()+"."+u.ext)
	if err := s.write(rel, u.data); err != nil {
		return "", err
	}
	return rel, nil
}

// process decodes data and re-encodes it only when a resize or format
// change is needed.
func process(mtype string, data []byte) ([]byte, error) {
	var buf bytes.Buffer

	switch mtype {
	case "image/jpeg":
		img, err := jpeg.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, ErrUnsupportedType
		}
		b := img.Bounds()
		w, h := FitWithin(b.Dx(), b.Dy(), MaxWidth, MaxHeight)
		if w == b.Dx() && h == b.Dy() {
			return data, nil
		}
		if err := jpeg.Encode(&buf, Resize(img, w, h), &jpeg.Options{Quality: 90}); err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}

	case "image/png":
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, ErrUnsupportedType
		}
		b := img.Bounds()
		w, h := FitWithin(b.Dx(), b.Dy(), MaxWidth, MaxHeight)
		if w == b.Dx() && h == b.Dy() {
			return data, nil
		}
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(&buf, Resize(img, w, h)); err != nil {
			return nil, fmt.Errorf("encode png: %w", err)
		}

	case "image/gif":
		g, err := gif.DecodeAll(bytes.NewReader(data))
		if err != nil {
			return nil, ErrUnsupportedType
		}
		w, h := FitWithin(g.Config.Width, g.Config.Height, MaxWidth, MaxHeight)
		if w == g.Config.Width && h == g.Config.Height {
			return data, nil
		}
		ResizeGIF(g, w, h)
		if err := gif.EncodeAll(&buf, g); err != nil {
			return nil, fmt.Errorf("encode gif: %w", err)
		}

	case "image/webp":
		img, err := webp.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, ErrUnsupportedType
		}
		b := img.Bounds()
		w, h := FitWithin(b.Dx(), b.Dy(), MaxWidth, MaxHeight)
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(&buf, Resize(img, w, h)); err != nil {
			return nil, fmt.Errorf("encode png: %w", err)
		}

	default:
		return nil, ErrUnsupportedType
	}

	return buf.Bytes(), nil
}

func (s *Store) write(rel string, data []byte) error {
	full, err := s.resolve(rel)
	if err != nil {
		return err
	}

	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to chmod file: %w", err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to move file: %w", err)
	}
	return nil
}

// Remove deletes a stored image. A missing file counts as removed.
func (s *Store) Remove(rel string) error {
	if rel == "" {
		return nil
	}
	full, err := s.resolve(rel)
	if err != nil {
		return err
	}

	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// Exists reports whether rel points to a regular file under the root.
func (s *Store) Exists(rel string) bool {
	if rel == "" {
		return false
	}
	full, err := s.resolve(rel)
	if err != nil {
		return false
	}
	info, err := os.Stat(full)
	return err == nil && info.Mode().IsRegular()
}

// URL returns the public URL for rel, or PlaceholderURL when the file is gone.
func (s *Store) URL(rel string) string {
	if !s.Exists(rel) {
		return PlaceholderURL
	}
	return "/" + strings.TrimPrefix(filepath.ToSlash(rel), "/")
}

// resolve maps a slash-separated relative path to a filesystem path,
// rejecting anything that leaves the root.
func (s *Store) resolve(rel string) (string, error) {
	rel = strings.ReplaceAll(rel, "\\", "/")
	clean := path.Clean("/" + rel)
	if clean != "/"+strings.TrimPrefix(rel, "/") {
		return "", ErrOutsideRoot
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}
