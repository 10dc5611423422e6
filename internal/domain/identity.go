package domain

// Capability names carried by access tokens.
const (
	CapabilityListingCreate = "listing.create"
	CapabilityListingUpdate = "listing.update"

	// CapabilityAll is granted to first-party tokens and satisfies every check.
	CapabilityAll = "*"
)

// Identity is the authenticated caller of a request. It is resolved once by
// the HTTP layer and passed explicitly into every service operation.
// The zero value is the anonymous caller.
type Identity struct {
	UserID       int64
	Capabilities []string
}

// Authenticated reports whether the identity belongs to a real user.
func (i Identity) Authenticated() bool {
	return i.UserID > 0
}

// Can reports whether the identity's token was granted capability.
// Anonymous identities can do nothing.
func (i Identity) Can(capability string) bool {
	if !i.Authenticated() {
		return false
	}
	for _, c := range i.Capabilities {
		if c == capability || c == CapabilityAll {
			return true
		}
	}
	return false
}
