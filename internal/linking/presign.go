package linking

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"

	"uidtrust/internal/user"
)

// MintMessage builds the deterministic packed encoding of a UID mint
// authorization, matching what the UniqueIdentity contract verifies:
//
//	msgSender · [mintTo] · uidType · expiresAt · contract · nonce · chainId
//
// with addresses as 20 raw bytes and integers as 32-byte big-endian words.
// The mintTo segment is present only for delegated mints. The relayer signs
// the hex form of these bytes; the handler re-derives them from the request
// body and compares byte-for-byte, so parameter tampering shows up as a
// plaintext mismatch rather than a signature failure.
func MintMessage(msgSender common.Address, mintTo *common.Address, uidType user.UIDType, expiresAt uint64, contract common.Address, nonce uint64, chainID *big.Int) []byte {
	size := 20 + 32 + 32 + 20 + 32 + 32
	if mintTo != nil {
		size += 20
	}
	out := make([]byte, 0, size)
	out = append(out, msgSender.Bytes()...)
	if mintTo != nil {
		out = append(out, mintTo.Bytes()...)
	}
	out = append(out, math.U256Bytes(big.NewInt(int64(uidType)))...)
	out = append(out, math.U256Bytes(new(big.Int).SetUint64(expiresAt))...)
	out = append(out, contract.Bytes()...)
	out = append(out, math.U256Bytes(new(big.Int).SetUint64(nonce))...)
	out = append(out, math.U256Bytes(new(big.Int).Set(chainID))...)
	return out
}
