package resolver

import (
	"context"

	"github.com/sapslaj/do-dyndns/address"
)

// Resolver determines the host's current public address for one address
// family.
type Resolver interface {
	Resolve(ctx context.Context, family address.Family) (address.PublicAddress, error)
}

// NetworkError wraps any failure to determine the public address: the echo
// service was unreachable, timed out, or returned something that does not
// parse as an address of the requested family. It is always recoverable; the
// next pass simply tries again.
type NetworkError struct {
	Family address.Family
	Err    error
}

func (e *NetworkError) Error() string {
	return "resolver: could not determine public " + string(e.Family) + " address: " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
