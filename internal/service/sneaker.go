package service

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/atinyakov/sneakvault/internal/media"
	"github.com/atinyakov/sneakvault/internal/models"
	"github.com/atinyakov/sneakvault/internal/repository"
	"github.com/atinyakov/sneakvault/internal/validation"
)

// SneakerRepository defines the persistence operations on sneakers.
type SneakerRepository interface {
	Find(ctx context.Context, f repository.SneakerFilter, limit, offset int) ([]models.Sneaker, int, error)
	AdminList(ctx context.Context, sort string) ([]models.Sneaker, error)
	Get(ctx context.Context, id int64) (*models.Sneaker, error)
	Create(ctx context.Context, s *models.Sneaker) (int64, error)
	Update(ctx context.Context, s *models.Sneaker) error
	// Delete returns the image path of the removed row.
	Delete(ctx context.Context, id int64) (string, error)
}

// ImageStore keeps uploaded images. Prepare checks an upload without
// writing it; Write stores a prepared upload.
type ImageStore interface {
	Prepare(r io.Reader) (*media.Upload, error)
	Write(u *media.Upload) (string, error)
	Remove(rel string) error
}

// SneakerInput is the admin sneaker form.
type SneakerInput struct {
	Name        string   `validate:"required,max=200" label:"Sneaker name"`
	Brand       string   `validate:"required,max=100" label:"Brand"`
	Colorway    string   `validate:"max=200" label:"Colorway"`
	ReleaseDate string   `validate:"omitempty,datetime=2006-01-02" label:"Release date"`
	RetailPrice *float64 `label:"Retail price"`
	Description string   `validate:"required" label:"Description"`
	CategoryID  int64    `validate:"gt=0" msg:"Please select a valid category."`
	SKU         string   `validate:"max=100" label:"SKU"`
}

// SneakerService implements the admin write paths for sneakers, keeping
// image files and rows consistent.
type SneakerService struct {
	repo   SneakerRepository
	images ImageStore
}

// NewSneakerService constructs a SneakerService.
func NewSneakerService(repo SneakerRepository, images ImageStore) *SneakerService {
	return &SneakerService{repo: repo, images: images}
}

// Get returns one sneaker.
func (s *SneakerService) Get(ctx context.Context, id int64) (*models.Sneaker, error) {
	return s.repo.Get(ctx, id)
}

// Create validates in, stores the optional upload and inserts the row. The
// stored file is removed again when the insert fails.
func (s *SneakerService) Create(ctx context.Context, in SneakerInput, upload io.Reader) (int64, error) {
	sn, img, err := s.check(in, upload)
	if err != nil {
		return 0, err
	}

	if img != nil {
		if sn.ImagePath, err = s.writeImage(img); err != nil {
			return 0, err
		}
	}

	id, err := s.repo.Create(ctx, sn)
	if err != nil {
		_ = s.images.Remove(sn.ImagePath)
		return 0, invalidCategory(err)
	}
	return id, nil
}

// Update validates in and overwrites sneaker id. A new upload replaces the
// current image; removeImage drops it without a replacement. The previous
// file is deleted only after the row was written.
func (s *SneakerService) Update(ctx context.Context, id int64, in SneakerInput, upload io.Reader, removeImage bool) error {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	sn, img, err := s.check(in, upload)
	if err != nil {
		return err
	}
	sn.ID = id
	sn.ImagePath = current.ImagePath

	var uploaded string
	switch {
	case img != nil:
		if uploaded, err = s.writeImage(img); err != nil {
			return err
		}
		sn.ImagePath = uploaded
	case removeImage:
		sn.ImagePath = ""
	}

	if err := s.repo.Update(ctx, sn); err != nil {
		_ = s.images.Remove(uploaded)
		return invalidCategory(err)
	}

	if current.ImagePath != "" && current.ImagePath != sn.ImagePath {
		_ = s.images.Remove(current.ImagePath)
	}
	return nil
}

// Delete removes the sneaker, its comments and its image file.
func (s *SneakerService) Delete(ctx context.Context, id int64) error {
	image, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	_ = s.images.Remove(image)
	return nil
}

// check validates the form fields and the optional upload together so every
// problem is reported at once.
func (s *SneakerService) check(in SneakerInput, upload io.Reader) (*models.Sneaker, *media.Upload, error) {
	sn, errs := sneakerFromInput(in)

	var img *media.Upload
	if upload != nil {
		var err error
		if img, err = s.images.Prepare(upload); err != nil {
			msg, ok := imageMessage(err)
			if !ok {
				return nil, nil, errors.Join(validation.Errors{"Failed to upload image."}, err)
			}
			errs.Add(msg)
		}
	}

	if !errs.Empty() {
		return nil, nil, errs
	}
	return sn, img, nil
}

func (s *SneakerService) writeImage(img *media.Upload) (string, error) {
	path, err := s.images.Write(img)
	if err != nil {
		return "", errors.Join(validation.Errors{"Failed to upload image."}, err)
	}
	return path, nil
}

func imageMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, media.ErrUnsupportedType):
		return "Invalid image file. Only JPEG, PNG, GIF, and WebP are allowed.", true
	case errors.Is(err, media.ErrTooLarge):
		return "Image file is too large. Maximum size is 10 MB.", true
	case errors.Is(err, media.ErrDimensions):
		return "Image dimensions are too large. Maximum is 50 megapixels.", true
	}
	return "", false
}

func sneakerFromInput(in SneakerInput) (*models.Sneaker, validation.Errors) {
	errs := validation.Validate(in)

	sn := &models.Sneaker{
		Name:        in.Name,
		Brand:       in.Brand,
		Colorway:    in.Colorway,
		RetailPrice: in.RetailPrice,
		Description: in.Description,
		CategoryID:  in.CategoryID,
		SKU:         in.SKU,
	}
	if in.ReleaseDate != "" && errs.Empty() {
		t, err := time.Parse(time.DateOnly, in.ReleaseDate)
		if err != nil {
			errs.Add("Release date must be a date in YYYY-MM-DD format.")
		} else {
			sn.ReleaseDate = &t
		}
	}
	return sn, errs
}

func invalidCategory(err error) error {
	if errors.Is(err, repository.ErrForeignKey) {
		return validation.Errors{"Please select a valid category."}
	}
	return err
}
