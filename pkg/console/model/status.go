package model

// Status is the effective lifecycle state of an entity. It is always derived, never stored.
type Status string

const (
	StatusActive  Status = "ACTIVE"
	StatusExpired Status = "EXPIRED"
	StatusRevoked Status = "REVOKED"
	StatusOnHold  Status = "ON_HOLD"
)

// CanReactivate reports whether the platform permits a transition back to ACTIVE.
func (s Status) CanReactivate() bool {
	return s == StatusOnHold
}

// IsTerminal is the complement of CanReactivate for every status except ACTIVE.
func (s Status) IsTerminal() bool {
	return s == StatusExpired || s == StatusRevoked
}
