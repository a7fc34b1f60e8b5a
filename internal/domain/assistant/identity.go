// Package assistant holds the domain model for the AI analyst session:
// the external identifiers that bind a local session to provider-side
// resources, and the stores that persist them across process restarts.
package assistant

import (
	"context"
	"errors"
)

// SessionTypeOrderAnalyst is the only session type currently in use.
const SessionTypeOrderAnalyst = "order-analyst"

// ErrIdentityNotFound indicates a store has no identity for the session type.
var ErrIdentityNotFound = errors.New("assistant: identity not found")

// Identity is the set of provider-side identifiers for one analyst session.
// FileID and AssistantID are durable; ThreadID is short-lived and only ever
// recovered from the ephemeral cache.
type Identity struct {
	FileID      string `json:"file_id"`
	AssistantID string `json:"assistant_id"`
	ThreadID    string `json:"thread_id,omitempty"`
}

// Complete reports whether the identity can answer questions without a fresh
// upload/creation pass.
func (id Identity) Complete() bool {
	return id.FileID != "" && id.AssistantID != ""
}

// IdentityStore persists session identities. The durable implementation is a
// keyed table with no expiry; the ephemeral one is a time-boxed cache mirror.
type IdentityStore interface {
	// Load returns the identity for the session type, or ErrIdentityNotFound.
	Load(ctx context.Context, sessionType string) (Identity, error)
	// Save stores the identity for the session type, replacing any previous one.
	Save(ctx context.Context, sessionType string, id Identity) error
	// Clear removes the stored identity for the session type.
	Clear(ctx context.Context, sessionType string) error
}

// Resolve encodes the recovery priority as a pure function:
// explicit constructor ids win over the durable store, which wins over the
// cache. The thread id is taken from the cache whenever the winning identity
// agrees with the cached assistant, since only the cache tracks threads.
func Resolve(explicit, durable, cached Identity) Identity {
	var out Identity
	switch {
	case explicit.Complete():
		out = explicit
	case durable.Complete():
		out = durable
	default:
		out = cached
	}
	if out.ThreadID == "" && cached.ThreadID != "" && cached.AssistantID == out.AssistantID {
		out.ThreadID = cached.ThreadID
	}
	return out
}
