package principal

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Role distinguishes the two principal kinds the policy engine matches on.
type Role string

const (
	// RoleParent may transfer to any service or counterparty.
	RoleParent Role = "parent"
	// RoleChild may only use services from its allowlist.
	RoleChild Role = "child"
)

// Valid reports whether the role is one of the known variants.
func (r Role) Valid() bool {
	switch r {
	case RoleParent, RoleChild:
		return true
	default:
		return false
	}
}

// Principal is an authenticated caller. It is supplied by the auth provider
// and consumed by the policy engine; this service never creates principals.
type Principal struct {
	ID              string
	NationalID      string
	FullName        string
	Role            Role
	PINHash         []byte
	AllowedServices []string
	CreatedAt       time.Time
}

// ServiceAllowed reports whether the principal may transact with the given
// service tag. Parents are unrestricted; children are bound to their allowlist.
func (p Principal) ServiceAllowed(tag string) bool {
	switch p.Role {
	case RoleParent:
		return true
	case RoleChild:
		for _, allowed := range p.AllowedServices {
			if allowed == tag {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// VerifyPIN compares the supplied PIN against the stored bcrypt hash.
func (p Principal) VerifyPIN(pin string) bool {
	return bcrypt.CompareHashAndPassword(p.PINHash, []byte(pin)) == nil
}

// HashPIN derives the bcrypt hash stored for a principal's PIN.
func HashPIN(pin string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
}
