package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and chain clients return
// these (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: document does not exist in the store
// - ErrConflict: a write lost an optimistic-concurrency race
// - ErrContention: transaction retries exhausted under sustained contention
// - ErrUnavailable: store or chain endpoint temporarily unreachable
//
// For validation errors (bad input, missing headers), use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrContention  = errors.New("transaction contention")
	ErrUnavailable = errors.New("unavailable")
)
