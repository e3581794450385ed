package signature

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"uidtrust/internal/platform/middleware"
)

// Mode declares how a route authenticates. The set is closed; Require
// handles every member exhaustively.
type Mode int

const (
	// ModeNone invokes the handler directly with no verification.
	ModeNone Mode = iota
	// ModeSignature requires a valid request signature.
	ModeSignature
	// ModeSignatureWithAllowList additionally requires the recovered signer
	// to be a configured trusted relayer.
	ModeSignatureWithAllowList
)

// Auth configures one route's authentication.
type Auth struct {
	Mode Mode
	// AllowList is required for ModeSignatureWithAllowList and ignored
	// otherwise.
	AllowList []common.Address
	// MaxAge overrides the freshness window; zero keeps DefaultMaxAge.
	MaxAge time.Duration
}

// HandlerFunc is a request handler that receives the verified signer. For
// ModeNone the address is the zero address.
type HandlerFunc func(w http.ResponseWriter, r *http.Request, signer common.Address)

// Require wraps next with the declared auth mode. On rejection the failure
// status and body are written directly and next is never invoked. On success
// the authenticated identity is attached to the request's observability
// context before next runs, so errors raised inside the handler are
// attributable.
func (v *Verifier) Require(auth Auth, next HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var opts Options
		switch auth.Mode {
		case ModeNone:
			next(w, r, common.Address{})
			return
		case ModeSignature:
			opts = Options{MaxAge: auth.MaxAge}
		case ModeSignatureWithAllowList:
			allowList := auth.AllowList
			if allowList == nil {
				allowList = []common.Address{}
			}
			opts = Options{MaxAge: auth.MaxAge, AllowList: allowList}
		default:
			v.logger.ErrorContext(r.Context(), "unknown auth mode", "mode", int(auth.Mode))
			writeRejection(w, Rejected{Status: http.StatusInternalServerError, Message: "Internal error."})
			return
		}

		result := v.Verify(r.Context(), HeadersFromRequest(r), r.Header.Get("Origin"), opts)
		switch res := result.(type) {
		case Rejected:
			writeRejection(w, res)
		case Verified:
			span := trace.SpanFromContext(r.Context())
			span.SetAttributes(attribute.String("user.address", res.Address.Hex()))
			logger := v.logger.With(
				"address", res.Address.Hex(),
				"request_id", middleware.GetRequestID(r.Context()),
			)
			logger.InfoContext(r.Context(), "signature verified")
			next(w, r, res.Address)
		}
	}
}

func writeRejection(w http.ResponseWriter, res Rejected) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(res.Status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": res.Message})
}
