package authz

import "context"

// PrincipalResolver loads the full principal record - identity, profile and
// the profile's capability grants - in one logical fetch. This is the only
// component allowed to read capability grants.
type PrincipalResolver interface {
	// Resolve returns the principal for the id, or ErrNotFound when the id
	// does not exist or the account is deactivated.
	Resolve(ctx context.Context, principalID string) (*Principal, error)
}

// AuditEvent describes a security-relevant decision worth recording.
type AuditEvent struct {
	Type        string `json:"type"` // auth_failed, forbidden, elevation_denied
	PrincipalID string `json:"principal_id,omitempty"`
	Capability  string `json:"capability,omitempty"`
	Detail      string `json:"detail,omitempty"`
}

// AuditSink records audit events. Implementations must be best-effort:
// a failing sink never changes the request outcome.
type AuditSink interface {
	Record(ctx context.Context, event AuditEvent)
}
