package shared

import "time"

// ActorContext identifies who performs a mutating operation and when.
// Aggregates stamp LastEditedBy/LastEditedWhen from it instead of reading
// ambient clock or identity state.
type ActorContext struct {
	PersonID int64
	At       time.Time
}

// NewActor builds an ActorContext for the given person at the given instant.
func NewActor(personID int64, at time.Time) (ActorContext, error) {
	if personID <= 0 {
		return ActorContext{}, NewValidationError("personID", "must be positive")
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return ActorContext{PersonID: personID, At: at}, nil
}

// SystemActor is used by background jobs and migrations.
func SystemActor(at time.Time) ActorContext {
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return ActorContext{PersonID: 1, At: at}
}

// RequireID validates an opaque positive foreign key. Reference data is never
// dereferenced here; referential integrity is the persistence layer's concern.
func RequireID(field string, v int64) error {
	if v <= 0 {
		return NewValidationError(field, "must be a positive id")
	}
	return nil
}

// OptionalID validates a nullable foreign key when present.
func OptionalID(field string, v *int64) error {
	if v == nil {
		return nil
	}
	return RequireID(field, *v)
}
