package domain

import "time"

// Image is a picture belonging to exactly one listing.
// Path is the opaque key returned by the storage backend.
type Image struct {
	ID        int64
	ListingID int64
	Path      string
	CreatedAt time.Time
}

// Guard messages returned under the "image" field.
const (
	MsgOnlyImage     = "Cannot delete the only image."
	MsgFeaturedImage = "Cannot delete the featured image."
)

// CanDeleteImage decides whether image may be removed from listing, given the
// listing's current image count. The only-image check runs first, so an
// image that is both the only one and featured reports "only image".
func CanDeleteImage(listing Listing, imageCount int, image Image) error {
	if imageCount == 1 {
		return NewConflictError("image", MsgOnlyImage)
	}
	if listing.FeaturedImageID != nil && *listing.FeaturedImageID == image.ID {
		return NewConflictError("image", MsgFeaturedImage)
	}
	return nil
}
