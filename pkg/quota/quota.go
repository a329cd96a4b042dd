// Package quota tracks storage capacity per owner. Every size-consuming
// write in the engine passes through Consume before it touches any other
// aggregate.
package quota

import (
	"errors"
	"fmt"

	"github.com/permagit/permagit/pkg/object"
)

var (
	// ErrInsufficientStorage is returned when a consume request exceeds
	// the remaining capacity.
	ErrInsufficientStorage = errors.New("insufficient storage")

	// ErrInsufficientPayment is returned when a purchase payment does not
	// cover the requested capacity.
	ErrInsufficientPayment = errors.New("insufficient payment")
)

// Pricing sets the unit economics of storage purchases.
type Pricing struct {
	UnitBytes uint64 // bytes per purchase unit
	UnitPrice uint64 // price per unit
}

// DefaultPricing sells storage in 1 MiB units.
var DefaultPricing = Pricing{UnitBytes: 1 << 20, UnitPrice: 100}

// Payment is a debitable balance handed in by the caller's wallet flow.
type Payment struct {
	Balance uint64
}

// Quota is one owner's storage account. Created once per owner and never
// destroyed; capacity only grows (purchases) and usage only grows
// (consumption).
type Quota struct {
	Owner          object.Identity `json:"owner"`
	BytesAvailable uint64          `json:"bytes_available"`
	BytesUsed      uint64          `json:"bytes_used"`
}

// New creates a quota with the given initial capacity.
func New(owner object.Identity, initialBytes uint64) *Quota {
	return &Quota{Owner: owner, BytesAvailable: initialBytes}
}

// Remaining reports the unconsumed capacity.
func (q *Quota) Remaining() uint64 {
	if q.BytesUsed >= q.BytesAvailable {
		return 0
	}
	return q.BytesAvailable - q.BytesUsed
}

// Consume reserves amount bytes. It fails with ErrInsufficientStorage when
// the request exceeds the remaining capacity, leaving usage unchanged.
func (q *Quota) Consume(amount uint64) error {
	if amount > q.Remaining() {
		return fmt.Errorf("consume %d bytes (remaining %d): %w", amount, q.Remaining(), ErrInsufficientStorage)
	}
	q.BytesUsed += amount
	return nil
}

// Purchase grows the available capacity by amount bytes, debiting the
// payment at the given pricing. Partial units round up.
func (q *Quota) Purchase(p *Payment, amount uint64, pricing Pricing) error {
	if pricing.UnitBytes == 0 {
		pricing = DefaultPricing
	}
	units := (amount + pricing.UnitBytes - 1) / pricing.UnitBytes
	cost := units * pricing.UnitPrice
	if p == nil || p.Balance < cost {
		return fmt.Errorf("purchase %d bytes costs %d: %w", amount, cost, ErrInsufficientPayment)
	}
	p.Balance -= cost
	q.BytesAvailable += amount
	return nil
}
