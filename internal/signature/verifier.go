// Package signature verifies that a request is authentically signed by the
// address it claims to represent, bound to a specific, freshness-checked
// block of the chain the request targets.
package signature

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"uidtrust/internal/chain"
	"uidtrust/internal/platform/metrics"
)

// DefaultMaxAge is the default signature freshness window, measured in chain
// timestamps. Destructive operations override it with a much tighter window.
const DefaultMaxAge = 24 * time.Hour

// signInTemplate is the plaintext signed for plain sign-in requests.
const signInTemplate = "Sign in to Goldfinch: %d"

// Options tune a single verification.
type Options struct {
	// MaxAge overrides DefaultMaxAge when positive.
	MaxAge time.Duration
	// AllowList, when non-nil, restricts the recovered signer to its
	// members. A non-nil empty list is a configuration error, never an
	// implicit allow-all or deny-all.
	AllowList []common.Address
}

// Verifier recovers and validates request signatures against per-origin
// block sources.
type Verifier struct {
	registry *chain.Registry
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewVerifier builds a Verifier.
func NewVerifier(registry *chain.Registry, logger *slog.Logger, m *metrics.Metrics) *Verifier {
	return &Verifier{registry: registry, logger: logger, metrics: m}
}

// Verify checks the signature headers for a request from origin. All
// rejections are terminal for the request; nothing is retried here.
func (v *Verifier) Verify(ctx context.Context, hdr Headers, origin string, opts Options) Result {
	start := time.Now()
	result := v.verify(ctx, hdr, origin, opts)
	v.metrics.VerifyDuration.Observe(time.Since(start).Seconds())
	switch res := result.(type) {
	case Verified:
		v.metrics.SignatureVerifications.WithLabelValues("verified").Inc()
	case Rejected:
		v.metrics.SignatureVerifications.WithLabelValues("rejected").Inc()
		v.logger.WarnContext(ctx, "signature rejected",
			"claimed_address", hdr.Address,
			"status", res.Status,
			"reason", res.Message,
		)
	}
	return result
}

func (v *Verifier) verify(ctx context.Context, hdr Headers, origin string, opts Options) Result {
	if hdr.Address == "" {
		return reject(http.StatusBadRequest, "Address not provided.")
	}
	if hdr.Signature == "" {
		return reject(http.StatusBadRequest, "Signature not provided.")
	}
	if hdr.BlockNum == "" {
		return reject(http.StatusBadRequest, "Signature block number not provided.")
	}

	blockNum, err := strconv.ParseUint(hdr.BlockNum, 10, 64)
	if err != nil {
		return reject(http.StatusBadRequest, "Invalid signature block number.")
	}

	plaintext := hdr.Plaintext
	if plaintext == "" {
		plaintext = fmt.Sprintf(signInTemplate, blockNum)
	}

	recovered, ok := recoverSigner(plaintext, hdr.Signature)
	if !ok || !strings.EqualFold(recovered.Hex(), hdr.Address) {
		return reject(http.StatusUnauthorized, "Invalid address or signature.")
	}

	source := v.registry.ForOrigin(origin)
	current, err := source.LatestBlock(ctx)
	if err != nil {
		v.logger.ErrorContext(ctx, "latest block fetch failed", "origin", origin, "error", err)
		return reject(http.StatusInternalServerError, "Internal error.")
	}
	if current.Number < blockNum {
		// The signature claims a block the chain has not reached. Name the
		// numbers; never silently clamp.
		return reject(http.StatusUnauthorized,
			fmt.Sprintf("Unexpected signature block number: %d < %d", current.Number, blockNum))
	}

	sigBlock, err := source.BlockByNumber(ctx, blockNum)
	if err != nil {
		v.logger.ErrorContext(ctx, "signature block fetch failed", "block", blockNum, "error", err)
		return reject(http.StatusInternalServerError, "Internal error.")
	}

	maxAge := opts.MaxAge
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	if current.Timestamp > sigBlock.Timestamp+uint64(maxAge.Seconds()) {
		return reject(http.StatusUnauthorized, "Signature expired.")
	}

	if opts.AllowList != nil {
		if len(opts.AllowList) == 0 {
			v.logger.ErrorContext(ctx, "empty signer allow list configured")
			return reject(http.StatusInternalServerError, "Allow list cannot be empty.")
		}
		if !containsAddress(opts.AllowList, recovered) {
			return reject(http.StatusForbidden,
				fmt.Sprintf("Signer %s not allowed to call this function", recovered.Hex()))
		}
	}

	return Verified{Address: recovered}
}

// recoverSigner recovers the personal-sign (EIP-191) signer of plaintext.
func recoverSigner(plaintext, signature string) (common.Address, bool) {
	sig, err := hexutil.Decode(signature)
	if err != nil || len(sig) != crypto.SignatureLength {
		return common.Address{}, false
	}

	// Wallets report the recovery id as 27/28; crypto.SigToPub wants 0/1.
	sig = append([]byte(nil), sig...)
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}
	if sig[crypto.RecoveryIDOffset] > 1 {
		return common.Address{}, false
	}

	pub, err := crypto.SigToPub(accounts.TextHash([]byte(plaintext)), sig)
	if err != nil {
		return common.Address{}, false
	}
	return crypto.PubkeyToAddress(*pub), true
}

// containsAddress checks membership by address bytes, so casing of the
// configured entries never matters.
func containsAddress(list []common.Address, addr common.Address) bool {
	for _, candidate := range list {
		if candidate == addr {
			return true
		}
	}
	return false
}
