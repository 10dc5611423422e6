package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/pkordes/office-listings/backend/internal/domain"
	"github.com/pkordes/office-listings/backend/internal/repo"
)

// MaxImageBytes is the largest accepted upload (5000 KiB).
const MaxImageBytes = 5000 * 1024

// allowedImageTypes is the upload allow-list.
var allowedImageTypes = []string{"image/png", "image/jpeg"}

// Upload validation messages, reported under the "image" field.
const (
	MsgImageRequired = "The image field is required."
	MsgImageTooLarge = "The image must not be greater than 5000 kilobytes."
	MsgImageType     = "The image must be a file of type: jpg, jpeg, png."
)

// ImageService manages the image set of a listing.
type ImageService struct {
	listings repo.ListingRepo
	images   repo.ImageRepo
	storage  Storage
	log      *slog.Logger
}

// NewImageService constructs an ImageService.
func NewImageService(listings repo.ListingRepo, images repo.ImageRepo, storage Storage, log *slog.Logger) *ImageService {
	return &ImageService{listings: listings, images: images, storage: storage, log: log}
}

// AuthorizeUpload checks that caller may add images to listing listingID.
// The HTTP layer calls it before reading the request body; Upload repeats
// the check.
func (s *ImageService) AuthorizeUpload(ctx context.Context, caller domain.Identity, listingID int64) error {
	if err := authorize(caller, domain.CapabilityListingUpdate); err != nil {
		return fmt.Errorf("service.ImageService.AuthorizeUpload: %w", err)
	}
	if _, err := loadOwnedListing(ctx, s.listings, caller, listingID); err != nil {
		return fmt.Errorf("service.ImageService.AuthorizeUpload: %w", err)
	}
	return nil
}

// Upload stores the file read from r and attaches it to listing listingID.
// The content type is sniffed from the bytes, never taken from the client.
func (s *ImageService) Upload(ctx context.Context, caller domain.Identity, listingID int64, r io.Reader) (domain.Image, error) {
	if err := authorize(caller, domain.CapabilityListingUpdate); err != nil {
		return domain.Image{}, fmt.Errorf("service.ImageService.Upload: %w", err)
	}
	if _, err := loadOwnedListing(ctx, s.listings, caller, listingID); err != nil {
		return domain.Image{}, fmt.Errorf("service.ImageService.Upload: %w", err)
	}

	data, mime, err := readImage(r)
	if err != nil {
		return domain.Image{}, fmt.Errorf("service.ImageService.Upload: %w", err)
	}

	name := fmt.Sprintf("listings/%d/%s%s", listingID, uuid.NewString(), mime.Extension())
	path, err := s.storage.Put(ctx, name, mime.String(), bytes.NewReader(data))
	if err != nil {
		return domain.Image{}, fmt.Errorf("service.ImageService.Upload: %w: %w", domain.ErrUnavailable, err)
	}

	img, err := s.images.Create(ctx, domain.Image{ListingID: listingID, Path: path})
	if err != nil {
		s.removeFile(ctx, path)
		return domain.Image{}, storageErr("service.ImageService.Upload", err)
	}
	return img, nil
}

// Delete removes image imageID from listing listingID, unless it is the
// listing's only image or its featured image. The stored file is removed
// after the row; a failure there is only logged.
func (s *ImageService) Delete(ctx context.Context, caller domain.Identity, listingID, imageID int64) error {
	if err := authorize(caller, domain.CapabilityListingUpdate); err != nil {
		return fmt.Errorf("service.ImageService.Delete: %w", err)
	}
	listing, err := loadOwnedListing(ctx, s.listings, caller, listingID)
	if err != nil {
		return fmt.Errorf("service.ImageService.Delete: %w", err)
	}

	img, err := s.images.GetByID(ctx, listingID, imageID)
	if err != nil {
		return storageErr("service.ImageService.Delete", err)
	}
	count, err := s.images.CountByListing(ctx, listingID)
	if err != nil {
		return storageErr("service.ImageService.Delete", err)
	}
	if err := domain.CanDeleteImage(listing, count, img); err != nil {
		return fmt.Errorf("service.ImageService.Delete: %w", err)
	}

	if err := s.images.Delete(ctx, listingID, imageID); err != nil {
		return storageErr("service.ImageService.Delete", err)
	}
	s.removeFile(ctx, img.Path)
	return nil
}

func (s *ImageService) removeFile(ctx context.Context, path string) {
	if err := s.storage.Delete(ctx, path); err != nil {
		s.log.WarnContext(ctx, "image file removal failed", "path", path, "error", err)
	}
}

// readImage reads at most MaxImageBytes from r and checks the sniffed type
// against the allow-list.
func readImage(r io.Reader) ([]byte, *mimetype.MIME, error) {
	if r == nil {
		return nil, nil, domain.NewValidationError(domain.FieldErrors{"image": {MsgImageRequired}})
	}
	data, err := io.ReadAll(io.LimitReader(r, MaxImageBytes+1))
	if err != nil {
		return nil, nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, nil, domain.NewValidationError(domain.FieldErrors{"image": {MsgImageRequired}})
	}
	if len(data) > MaxImageBytes {
		return nil, nil, domain.NewValidationError(domain.FieldErrors{"image": {MsgImageTooLarge}})
	}

	mime := mimetype.Detect(data)
	if !mimetype.EqualsAny(mime.String(), allowedImageTypes...) {
		return nil, nil, domain.NewValidationError(domain.FieldErrors{"image": {MsgImageType}})
	}
	return data, mime, nil
}
