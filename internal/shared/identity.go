package shared

import "time"

// Identity is a one-shot surrogate key assigned by the persistence layer
// after the first insert. Assigning twice is a programming error.
type Identity struct {
	id  int64
	set bool
}

// PersistedIdentity rehydrates an identity previously assigned by storage.
func PersistedIdentity(id int64) Identity {
	return Identity{id: id, set: true}
}

// Assign sets the identity exactly once.
func (i *Identity) Assign(id int64) error {
	if i.set {
		return NewStateError("assign identity", "id already assigned")
	}
	if id <= 0 {
		return NewValidationError("id", "must be positive")
	}
	i.id = id
	i.set = true
	return nil
}

// Value returns the id and whether it has been assigned.
func (i Identity) Value() (int64, bool) {
	return i.id, i.set
}

// MustValue returns the id, or zero when unassigned. Useful in logging.
func (i Identity) MustValue() int64 {
	return i.id
}

// TemporalSpan carries system-versioning metadata owned by the persistence
// layer. The domain never reads it for business decisions.
type TemporalSpan struct {
	ValidFrom time.Time
	ValidTo   time.Time
}

// SetValidity records the row's temporal window.
func (t *TemporalSpan) SetValidity(from, to time.Time) error {
	if !to.After(from) {
		return NewValidationError("validTo", "must be after validFrom")
	}
	t.ValidFrom = from
	t.ValidTo = to
	return nil
}
