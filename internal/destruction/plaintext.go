// Package destruction implements the user-destruction state machine: an
// allow-listed relayer proves a UID burn happened on-chain, and the live KYC
// record is deleted while the immutable deletion log gains an entry.
package destruction

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"uidtrust/internal/user"
	dErrors "uidtrust/pkg/domain-errors"
)

// burnMessageLen is a 20-byte address followed by a single uidType byte.
const burnMessageLen = 21

// EncodeBurnMessage packs (address, uidType) into the fixed binary layout the
// relayer signs, hex-encoded.
func EncodeBurnMessage(addr common.Address, uidType user.UIDType) string {
	out := make([]byte, 0, burnMessageLen)
	out = append(out, addr.Bytes()...)
	out = append(out, byte(uidType))
	return hexutil.Encode(out)
}

// DecodeBurnMessage parses the hex plaintext back into the address to destroy
// and the burned UID type. Any malformation maps to the same client error;
// the relayer gets no oracle for probing the layout.
func DecodeBurnMessage(plaintext string) (common.Address, user.UIDType, error) {
	raw, err := hexutil.Decode(plaintext)
	if err != nil || len(raw) != burnMessageLen {
		return common.Address{}, 0, dErrors.New(dErrors.CodeBadRequest, "Bad plaintext")
	}
	uidType := user.UIDType(raw[common.AddressLength])
	if !uidType.Valid() {
		return common.Address{}, 0, dErrors.New(dErrors.CodeBadRequest, "Bad plaintext")
	}
	return common.BytesToAddress(raw[:common.AddressLength]), uidType, nil
}
