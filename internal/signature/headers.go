package signature

import "net/http"

// Request headers carrying the signature proof. Matching is case-insensitive
// per HTTP semantics.
const (
	HeaderAddress   = "x-goldfinch-address"
	HeaderSignature = "x-goldfinch-signature"
	HeaderBlockNum  = "x-goldfinch-signature-block-num"
	HeaderPlaintext = "x-goldfinch-signature-plaintext"
)

// Headers is the transient, per-request signature proof. Never persisted.
type Headers struct {
	Address   string
	Signature string
	BlockNum  string
	// Plaintext is optional. When empty the signature covers the fixed
	// sign-in template; when set, the handler must independently re-derive
	// and byte-compare it.
	Plaintext string
}

// HeadersFromRequest extracts the signature headers from an HTTP request.
func HeadersFromRequest(r *http.Request) Headers {
	return Headers{
		Address:   r.Header.Get(HeaderAddress),
		Signature: r.Header.Get(HeaderSignature),
		BlockNum:  r.Header.Get(HeaderBlockNum),
		Plaintext: r.Header.Get(HeaderPlaintext),
	}
}
