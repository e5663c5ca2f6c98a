package domain

// ID is the opaque, store-assigned identifier used for users and events.
// Ownership checks must go through Equal so that every comparison in the
// codebase uses the same operation on the same type; comparing raw strings
// pulled from different sources is how owner checks go wrong.
type ID string

// Equal reports whether two identifiers refer to the same entity.
func (id ID) Equal(other ID) bool {
	return id != "" && id == other
}

// IsZero reports whether the identifier is unset.
func (id ID) IsZero() bool {
	return id == ""
}

func (id ID) String() string {
	return string(id)
}
