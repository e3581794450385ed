package signature

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uidtrust/internal/chain"
	"uidtrust/internal/chain/chaintest"
	"uidtrust/internal/platform/logger"
	"uidtrust/internal/platform/metrics"
)

func newSigner(t *testing.T) (*ecdsa.PrivateKey, common.Address) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return key, crypto.PubkeyToAddress(key.PublicKey)
}

func personalSign(t *testing.T, plaintext string, key *ecdsa.PrivateKey) string {
	t.Helper()
	sig, err := crypto.Sign(accounts.TextHash([]byte(plaintext)), key)
	require.NoError(t, err)
	return hexutil.Encode(sig)
}

func newTestVerifier(t *testing.T, src *chaintest.Source) *Verifier {
	t.Helper()
	reg, err := chain.NewRegistry(map[string]chain.BlockSource{"mainnet": src}, nil, "mainnet")
	require.NoError(t, err)
	return NewVerifier(reg, logger.New(), metrics.NewForTest())
}

func signInHeaders(t *testing.T, key *ecdsa.PrivateKey, addr common.Address, blockNum uint64) Headers {
	t.Helper()
	return Headers{
		Address:   addr.Hex(),
		Signature: personalSign(t, fmt.Sprintf("Sign in to Goldfinch: %d", blockNum), key),
		BlockNum:  fmt.Sprintf("%d", blockNum),
	}
}

func TestVerifySignInAtCurrentBlock(t *testing.T) {
	key, addr := newSigner(t)
	src := chaintest.NewSource()
	src.SetLatest(100, 1700000000)

	v := newTestVerifier(t, src)
	result := v.Verify(context.Background(), signInHeaders(t, key, addr, 100), "", Options{})

	verified, ok := result.(Verified)
	require.True(t, ok, "expected Verified, got %#v", result)
	assert.Equal(t, addr, verified.Address)
}

func TestVerifyRejectsFutureBlockNumber(t *testing.T) {
	key, addr := newSigner(t)
	src := chaintest.NewSource()
	src.SetLatest(99, 1700000000)

	v := newTestVerifier(t, src)
	result := v.Verify(context.Background(), signInHeaders(t, key, addr, 100), "", Options{})

	rejected, ok := result.(Rejected)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, rejected.Status)
	assert.Equal(t, "Unexpected signature block number: 99 < 100", rejected.Message)
}

func TestVerifyMissingHeaders(t *testing.T) {
	key, addr := newSigner(t)
	v := newTestVerifier(t, chaintest.NewSource())
	valid := signInHeaders(t, key, addr, 100)

	cases := []struct {
		name    string
		mutate  func(h *Headers)
		message string
	}{
		{"address", func(h *Headers) { h.Address = "" }, "Address not provided."},
		{"signature", func(h *Headers) { h.Signature = "" }, "Signature not provided."},
		{"block number", func(h *Headers) { h.BlockNum = "" }, "Signature block number not provided."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			hdr := valid
			tc.mutate(&hdr)
			rejected, ok := v.Verify(context.Background(), hdr, "", Options{}).(Rejected)
			require.True(t, ok)
			assert.Equal(t, http.StatusBadRequest, rejected.Status)
			assert.Equal(t, tc.message, rejected.Message)
		})
	}
}

func TestVerifyRejectsNonIntegerBlockNumber(t *testing.T) {
	key, addr := newSigner(t)
	v := newTestVerifier(t, chaintest.NewSource())

	hdr := signInHeaders(t, key, addr, 100)
	hdr.BlockNum = "one hundred"
	rejected, ok := v.Verify(context.Background(), hdr, "", Options{}).(Rejected)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, rejected.Status)
	assert.Equal(t, "Invalid signature block number.", rejected.Message)
}

func TestVerifyRejectsWrongClaimedAddress(t *testing.T) {
	key, _ := newSigner(t)
	_, otherAddr := newSigner(t)
	src := chaintest.NewSource()
	src.SetLatest(100, 1700000000)

	v := newTestVerifier(t, src)
	hdr := signInHeaders(t, key, otherAddr, 100)
	rejected, ok := v.Verify(context.Background(), hdr, "", Options{}).(Rejected)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, rejected.Status)
	assert.Equal(t, "Invalid address or signature.", rejected.Message)
}

func TestVerifyRejectsMalformedSignature(t *testing.T) {
	_, addr := newSigner(t)
	v := newTestVerifier(t, chaintest.NewSource())

	for _, sig := range []string{"not hex", "0xdeadbeef", "0x" + strings.Repeat("00", 65)} {
		hdr := Headers{Address: addr.Hex(), Signature: sig, BlockNum: "100"}
		rejected, ok := v.Verify(context.Background(), hdr, "", Options{}).(Rejected)
		require.True(t, ok, sig)
		assert.Equal(t, http.StatusUnauthorized, rejected.Status, sig)
		assert.Equal(t, "Invalid address or signature.", rejected.Message, sig)
	}
}

func TestVerifyAcceptsLegacyRecoveryID(t *testing.T) {
	// Browser wallets report V as 27/28 rather than 0/1.
	key, addr := newSigner(t)
	src := chaintest.NewSource()
	src.SetLatest(100, 1700000000)

	hdr := signInHeaders(t, key, addr, 100)
	raw, err := hexutil.Decode(hdr.Signature)
	require.NoError(t, err)
	raw[64] += 27
	hdr.Signature = hexutil.Encode(raw)

	v := newTestVerifier(t, src)
	_, ok := v.Verify(context.Background(), hdr, "", Options{}).(Verified)
	assert.True(t, ok)
}

func TestVerifyAcceptsCaseVariantAddressHeader(t *testing.T) {
	key, addr := newSigner(t)
	src := chaintest.NewSource()
	src.SetLatest(100, 1700000000)

	hdr := signInHeaders(t, key, addr, 100)
	hdr.Address = strings.ToLower(hdr.Address)

	v := newTestVerifier(t, src)
	verified, ok := v.Verify(context.Background(), hdr, "", Options{}).(Verified)
	require.True(t, ok)
	// Downstream always gets the recovered, checksummed value.
	assert.Equal(t, addr.Hex(), verified.Address.Hex())
}

func TestVerifyFreshnessWindow(t *testing.T) {
	key, addr := newSigner(t)
	const sigBlockTime = uint64(1700000000)
	maxAge := 5 * time.Minute

	cases := []struct {
		name       string
		latestTime uint64
		expired    bool
	}{
		{"same timestamp", sigBlockTime, false},
		{"inside window", sigBlockTime + 200, false},
		{"at window boundary", sigBlockTime + 300, false},
		{"just past window", sigBlockTime + 301, true},
		{"well past window", sigBlockTime + 86400, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			src := chaintest.NewSource()
			src.SetBlock(100, sigBlockTime)
			src.SetLatest(500, tc.latestTime)

			v := newTestVerifier(t, src)
			result := v.Verify(context.Background(), signInHeaders(t, key, addr, 100), "", Options{MaxAge: maxAge})

			if tc.expired {
				rejected, ok := result.(Rejected)
				require.True(t, ok)
				assert.Equal(t, http.StatusUnauthorized, rejected.Status)
				assert.Equal(t, "Signature expired.", rejected.Message)
			} else {
				_, ok := result.(Verified)
				assert.True(t, ok, "expected Verified, got %#v", result)
			}
		})
	}
}

func TestVerifyExplicitPlaintext(t *testing.T) {
	key, addr := newSigner(t)
	src := chaintest.NewSource()
	src.SetLatest(100, 1700000000)

	plaintext := "0x00000000000000000000000000000000000000000000000000000000000000ff"
	hdr := Headers{
		Address:   addr.Hex(),
		Signature: personalSign(t, plaintext, key),
		BlockNum:  "100",
		Plaintext: plaintext,
	}

	v := newTestVerifier(t, src)
	verified, ok := v.Verify(context.Background(), hdr, "", Options{}).(Verified)
	require.True(t, ok)
	assert.Equal(t, addr, verified.Address)

	// The same signature over a different plaintext recovers a different
	// address and is rejected.
	hdr.Plaintext = plaintext + "00"
	rejected, ok := v.Verify(context.Background(), hdr, "", Options{}).(Rejected)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, rejected.Status)
}

func TestVerifyAllowList(t *testing.T) {
	key, addr := newSigner(t)
	_, stranger := newSigner(t)
	src := chaintest.NewSource()
	src.SetLatest(100, 1700000000)
	v := newTestVerifier(t, src)
	hdr := signInHeaders(t, key, addr, 100)

	t.Run("member passes regardless of list casing", func(t *testing.T) {
		list := []common.Address{common.HexToAddress(strings.ToLower(addr.Hex()))}
		_, ok := v.Verify(context.Background(), hdr, "", Options{AllowList: list}).(Verified)
		assert.True(t, ok)
	})

	t.Run("non-member rejected naming the signer", func(t *testing.T) {
		list := []common.Address{stranger}
		rejected, ok := v.Verify(context.Background(), hdr, "", Options{AllowList: list}).(Rejected)
		require.True(t, ok)
		assert.Equal(t, http.StatusForbidden, rejected.Status)
		assert.Equal(t, fmt.Sprintf("Signer %s not allowed to call this function", addr.Hex()), rejected.Message)
	})

	t.Run("empty list is a configuration error", func(t *testing.T) {
		rejected, ok := v.Verify(context.Background(), hdr, "", Options{AllowList: []common.Address{}}).(Rejected)
		require.True(t, ok)
		assert.Equal(t, http.StatusInternalServerError, rejected.Status)
	})
}
