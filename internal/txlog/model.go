package txlog

import "time"

// PartyKind discriminates how a transfer participant is referenced.
type PartyKind string

const (
	// PartyWallet references a managed wallet account.
	PartyWallet PartyKind = "wallet"
	// PartyCreditCard references a managed credit card account.
	PartyCreditCard PartyKind = "creditCard"
	// PartyExternal references an unmanaged party, e.g. a service.
	PartyExternal PartyKind = "external"
)

// Direction is relative to the initiating principal.
type Direction string

const (
	// DirectionIn means the principal received value.
	DirectionIn Direction = "in"
	// DirectionOut means the principal sent value.
	DirectionOut Direction = "out"
)

// Valid reports whether the direction is a known variant.
func (d Direction) Valid() bool {
	return d == DirectionIn || d == DirectionOut
}

// PartyRef identifies one side of a transfer. AccountID is set for managed
// parties, NationalID for parties identified by their national identifier.
type PartyRef struct {
	Kind       PartyKind `json:"kind"`
	AccountID  string    `json:"account_id,omitempty"`
	NationalID string    `json:"national_id,omitempty"`
}

// Transaction is the durable record of one completed transfer. Once recorded
// it is never mutated or deleted.
type Transaction struct {
	ID          string    `json:"id"`
	Source      PartyRef  `json:"source"`
	Destination PartyRef  `json:"destination"`
	Value       int64     `json:"value"`
	Direction   Direction `json:"direction"`
	ServiceTag  string    `json:"service_tag,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

const (
	defaultPageLimit = 50
	maxPageLimit     = 100
)

// Query narrows and orders a participant history listing. Filters are exact
// field matches; Sort entries are field names, "-" prefixed for descending.
type Query struct {
	Filters map[string]string
	Sort    []string
	Page    int
	Limit   int
}

func (q Query) page() int {
	if q.Page < 1 {
		return 1
	}
	return q.Page
}

func (q Query) limit() int {
	if q.Limit < 1 {
		return defaultPageLimit
	}
	if q.Limit > maxPageLimit {
		return maxPageLimit
	}
	return q.Limit
}
