package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/pkordes/office-listings/backend/internal/domain"
	"github.com/pkordes/office-listings/backend/internal/repo"
)

// Profile selects which rule set a ListingInput is checked against.
type Profile int

const (
	// ProfileCreate requires every core field.
	ProfileCreate Profile = iota
	// ProfileUpdate accepts any subset of fields; present fields follow the
	// same constraints as on create.
	ProfileUpdate
)

// tagName returns the struct tag holding the rules for p.
func (p Profile) tagName() string {
	if p == ProfileUpdate {
		return "update"
	}
	return "create"
}

// ListingInput is the raw, unvalidated listing payload. Nil pointers mean
// the field was not sent. Lat and Lng are kept as text so that a
// non-numeric value becomes a field error rather than a decode failure.
// A nil Tags means "not sent"; an empty non-nil slice detaches every tag.
type ListingInput struct {
	Name            *string `field:"name" create:"required,filled" update:"omitempty,filled"`
	Description     *string `field:"description" create:"required,filled" update:"omitempty,filled"`
	AddressLine1    *string `field:"address_line_1" create:"required,filled" update:"omitempty,filled"`
	Lat             *string `field:"lat" create:"required,numeric,coordinate" update:"omitempty,numeric,coordinate"`
	Lng             *string `field:"lng" create:"required,numeric,coordinate" update:"omitempty,numeric,coordinate"`
	PricePerDay     *int    `field:"price_per_day" create:"required,min=100,max=2147483647" update:"omitempty,min=100,max=2147483647"`
	MonthlyDiscount *int    `field:"monthly_discount" create:"omitempty,min=0,max=2147483647" update:"omitempty,min=0,max=2147483647"`
	Hidden          *bool   `field:"hidden"`
	Tags            []int64 `field:"tags"`
	FeaturedImageID *int64  `field:"featured_image_id"`
}

// coordinateLimit is the exclusive bound of a NUMERIC(11,8) column. Latitude
// and longitude are not range-checked against the globe.
const coordinateLimit = 1000

// Validation messages for the checks that go beyond field tags.
const (
	MsgTagMissing           = "The selected tag does not exist."
	MsgFeaturedImageInvalid = "The selected featured image does not belong to this listing."
)

// ListingValidator turns a ListingInput into a domain.ListingPatch, or a
// *domain.FieldError listing every failed rule.
type ListingValidator struct {
	create *validator.Validate
	update *validator.Validate
	tags   repo.TagRepo
	images repo.ImageRepo
}

// NewListingValidator constructs a ListingValidator. tags is used for the
// tag existence rule, images for the featured image rule.
func NewListingValidator(tags repo.TagRepo, images repo.ImageRepo) *ListingValidator {
	return &ListingValidator{
		create: newRuleSet(ProfileCreate),
		update: newRuleSet(ProfileUpdate),
		tags:   tags,
		images: images,
	}
}

func newRuleSet(p Profile) *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.SetTagName(p.tagName())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("field")
	})
	// filled rejects blank strings; a pointer to "" still counts as sent.
	_ = v.RegisterValidation("filled", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	// coordinate runs after numeric and checks the rounded value fits storage.
	_ = v.RegisterValidation("coordinate", func(fl validator.FieldLevel) bool {
		f, err := strconv.ParseFloat(strings.TrimSpace(fl.Field().String()), 64)
		if err != nil {
			return false
		}
		return math.Abs(domain.RoundCoordinate(f)) < coordinateLimit
	})
	return v
}

// Validate checks in against profile. On update, stored is the listing being
// edited; it scopes the featured image rule and is ignored on create.
func (v *ListingValidator) Validate(ctx context.Context, profile Profile, stored *domain.Listing, in ListingInput) (domain.ListingPatch, error) {
	rules := v.create
	if profile == ProfileUpdate {
		rules = v.update
	}

	fields := domain.FieldErrors{}
	if err := rules.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return domain.ListingPatch{}, fmt.Errorf("service.ListingValidator.Validate: %w", err)
		}
		for _, fe := range verrs {
			fields.Add(fe.Field(), ruleMessage(fe))
		}
	}

	if err := v.checkTags(ctx, in.Tags, fields); err != nil {
		return domain.ListingPatch{}, err
	}
	if profile == ProfileUpdate && stored != nil && in.FeaturedImageID != nil {
		if err := v.checkFeaturedImage(ctx, stored.ID, *in.FeaturedImageID, fields); err != nil {
			return domain.ListingPatch{}, err
		}
	}

	if len(fields) > 0 {
		return domain.ListingPatch{}, domain.NewValidationError(fields)
	}
	return toPatch(profile, in), nil
}

// checkTags records a "tags.N" error for every id that does not exist.
func (v *ListingValidator) checkTags(ctx context.Context, ids []int64, fields domain.FieldErrors) error {
	if len(ids) == 0 {
		return nil
	}
	existing, err := v.tags.ExistingIDs(ctx, ids)
	if err != nil {
		return storageErr("service.ListingValidator.checkTags", err)
	}
	found := make(map[int64]struct{}, len(existing))
	for _, id := range existing {
		found[id] = struct{}{}
	}
	for i, id := range ids {
		if _, ok := found[id]; !ok {
			fields.Add("tags."+strconv.Itoa(i), MsgTagMissing)
		}
	}
	return nil
}

func (v *ListingValidator) checkFeaturedImage(ctx context.Context, listingID, imageID int64, fields domain.FieldErrors) error {
	_, err := v.images.GetByID(ctx, listingID, imageID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrNotFound):
		fields.Add("featured_image_id", MsgFeaturedImageInvalid)
		return nil
	default:
		return storageErr("service.ListingValidator.checkFeaturedImage", err)
	}
}

// toPatch converts an input that already passed every rule.
func toPatch(profile Profile, in ListingInput) domain.ListingPatch {
	p := domain.ListingPatch{
		Name:            in.Name,
		Description:     in.Description,
		AddressLine1:    in.AddressLine1,
		Lat:             parseCoordinate(in.Lat),
		Lng:             parseCoordinate(in.Lng),
		PricePerDay:     in.PricePerDay,
		MonthlyDiscount: in.MonthlyDiscount,
		Hidden:          in.Hidden,
		TagIDs:          dedupeIDs(in.Tags),
		ReplaceTags:     in.Tags != nil,
	}
	if profile == ProfileUpdate {
		p.FeaturedImageID = in.FeaturedImageID
	}
	return p
}

// parseCoordinate parses a value the numeric rule already accepted.
func parseCoordinate(s *string) *float64 {
	if s == nil {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(*s), 64)
	if err != nil {
		return nil
	}
	f = domain.RoundCoordinate(f)
	return &f
}

// dedupeIDs drops repeated ids, keeping the first occurrence's position.
func dedupeIDs(ids []int64) []int64 {
	if ids == nil {
		return nil
	}
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// ruleMessage renders a failed rule as a human-readable sentence.
func ruleMessage(fe validator.FieldError) string {
	label := strings.ReplaceAll(fe.Field(), "_", " ")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", label)
	case "filled":
		return fmt.Sprintf("The %s field must have a value.", label)
	case "numeric":
		return fmt.Sprintf("The %s must be a number.", label)
	case "min":
		return fmt.Sprintf("The %s must be at least %s.", label, fe.Param())
	case "max":
		return fmt.Sprintf("The %s must not be greater than %s.", label, fe.Param())
	case "coordinate":
		return fmt.Sprintf("The %s must be between -999.99999999 and 999.99999999.", label)
	default:
		return fmt.Sprintf("The %s is invalid.", label)
	}
}
