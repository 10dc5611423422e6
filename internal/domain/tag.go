package domain

// Tag is a global label that can be attached to listings.
// Listings keep their tags in attach order; the association itself carries no payload.
type Tag struct {
	ID   int64
	Name string
}
