// Package audit captures compliance-relevant actions of the trust layer:
// UID recipient links and user destructions. Events are append-only and
// transport-agnostic so sinks can fan out.
package audit

import "time"

// Action names the audited operation.
type Action string

const (
	ActionUIDLinked     Action = "uid_recipient_linked"
	ActionUserDestroyed Action = "user_destroyed"
)

// Event is one audited action.
type Event struct {
	Action    Action    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
	// Address is the wallet address the action concerns, lowercase.
	Address string `json:"address"`
	// Signer is the recovered, checksummed signer that authorized it.
	Signer    string            `json:"signer"`
	RequestID string            `json:"requestId,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
}
