package signature

import "github.com/ethereum/go-ethereum/common"

// Result is the outcome of one verification: Verified or Rejected. The
// sealed marker keeps the set closed so callers type-switch over exactly
// two arms.
type Result interface {
	sealed()
}

// Verified carries the recovered, checksummed signer address. Downstream
// code must use this address, never the raw header value.
type Verified struct {
	Address common.Address
}

// Rejected is a terminal per-request failure. Status and Message are part of
// the API contract; the HTTP layer writes them verbatim as {"error": Message}.
type Rejected struct {
	Status  int
	Message string
}

func (Verified) sealed() {}
func (Rejected) sealed() {}

func reject(status int, message string) Rejected {
	return Rejected{Status: status, Message: message}
}
