// Package user holds the persisted KYC user records and the typed store the
// state machines mutate them through.
package user

import (
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// KYCProvider identifies which provider vouched for a user.
type KYCProvider string

const (
	ProviderPersona         KYCProvider = "persona"
	ProviderParallelMarkets KYCProvider = "parallelMarkets"
)

// PersonaStatusApproved is the terminal approved state in Persona's
// inquiry lifecycle.
const PersonaStatusApproved = "approved"

// UIDType is one of the protocol's on-chain credential types, represented as
// an ERC-1155 token id.
type UIDType int

const (
	UIDTypeNonUSIndividual           UIDType = 0
	UIDTypeUSAccreditedIndividual    UIDType = 1
	UIDTypeUSNonAccreditedIndividual UIDType = 2
	UIDTypeUSEntity                  UIDType = 3
	UIDTypeNonUSEntity               UIDType = 4
)

// Valid reports whether the value is a known credential type.
func (u UIDType) Valid() bool {
	return u >= UIDTypeNonUSIndividual && u <= UIDTypeNonUSEntity
}

func (u UIDType) String() string {
	return strconv.Itoa(int(u))
}

// PersonaData is the slice of Persona inquiry state the trust layer reads.
type PersonaData struct {
	ID     string `json:"id,omitempty"`
	Status string `json:"status,omitempty"`
}

// ParallelMarketsData is the slice of Parallel Markets state the trust layer
// reads. Destruction does not support this provider.
type ParallelMarketsData struct {
	ID                  string `json:"id,omitempty"`
	IdentityStatus      string `json:"identityStatus,omitempty"`
	AccreditationStatus string `json:"accreditationStatus,omitempty"`
}

// User is the live KYC record, keyed by lowercase wallet address. Created by
// the KYC provider callback, mutated by UID linking, deleted by destruction.
type User struct {
	Address     string      `json:"address"`
	CountryCode string      `json:"countryCode,omitempty"`
	KYCProvider KYCProvider `json:"kycProvider,omitempty"`

	Persona         *PersonaData         `json:"persona,omitempty"`
	ParallelMarkets *ParallelMarketsData `json:"parallelMarkets,omitempty"`

	// UIDRecipientAuthorizations maps a UID type id to the recipient
	// address authorized to receive that credential. Once set for a type,
	// an entry only changes when the signature that set it has expired and
	// a new valid signature names a different recipient.
	UIDRecipientAuthorizations map[string]string `json:"uidRecipientAuthorizations,omitempty"`

	UpdatedAt int64 `json:"updatedAt,omitempty"`
}

// ProviderSnapshot captures the provider state at destruction time for the
// immutable deletion log.
type ProviderSnapshot struct {
	Provider KYCProvider `json:"provider"`
	ID       string      `json:"id,omitempty"`
	Status   string      `json:"status,omitempty"`
}

// DeletionRecord is one entry of the append-only deletion log.
type DeletionRecord struct {
	CountryCode                string           `json:"countryCode"`
	BurnedUidType              string           `json:"burnedUidType"`
	CredentialProviderSnapshot ProviderSnapshot `json:"credentialProviderSnapshot"`
	DeletedAt                  int64            `json:"deletedAt"`
}

// DestroyedUser is the tombstone record, keyed like User. A destruction
// never overwrites a prior record, only appends.
type DestroyedUser struct {
	Address   string           `json:"address"`
	Deletions []DeletionRecord `json:"deletions"`
}

// Key normalizes an address into the document key form.
func Key(addr common.Address) string {
	return strings.ToLower(addr.Hex())
}

// KeyFromString normalizes a textual address into the document key form.
func KeyFromString(addr string) string {
	return Key(common.HexToAddress(addr))
}
