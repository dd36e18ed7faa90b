// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// PersonID represents a unique person identifier (UUID format).
type PersonID string

// IsValid checks if the person ID is a valid UUID.
func (p PersonID) IsValid() bool {
	_, err := uuid.Parse(string(p))
	return err == nil
}

// String returns the string representation.
func (p PersonID) String() string {
	return string(p)
}

// IsEmpty checks if the ID is empty.
func (p PersonID) IsEmpty() bool {
	return p == ""
}

// NewPersonID creates a new PersonID with validation.
func NewPersonID(id string) (PersonID, error) {
	pid := PersonID(strings.ToLower(strings.TrimSpace(id)))
	if !pid.IsValid() {
		return "", NewDomainError("shared", "NewPersonID", ErrInvalidID, "invalid person ID format")
	}
	return pid, nil
}

// GeneratePersonID creates a fresh random PersonID.
func GeneratePersonID() PersonID {
	return PersonID(uuid.NewString())
}

// ═══════════════════════════════════════════════════════════════════════════
// FamilyKey Value Object
// ═══════════════════════════════════════════════════════════════════════════

// FamilyKey groups siblings on the roster. Keys are free-form strings; keys
// that parse as integers order numerically before lexicographic keys.
type FamilyKey string

// IsZero reports whether no family key is set.
func (f FamilyKey) IsZero() bool {
	return strings.TrimSpace(string(f)) == ""
}

// String returns the string representation.
func (f FamilyKey) String() string {
	return string(f)
}

// numeric returns the integer value of the key and whether it is integral.
func (f FamilyKey) numeric() (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(string(f)), 10, 64)
	return n, err == nil
}

// Compare orders two family keys: numeric keys ascending first, then
// non-numeric keys case-insensitively. Returns -1, 0, or 1.
func (f FamilyKey) Compare(other FamilyKey) int {
	an, aNum := f.numeric()
	bn, bNum := other.numeric()
	switch {
	case aNum && bNum:
		if an < bn {
			return -1
		}
		if an > bn {
			return 1
		}
		return 0
	case aNum:
		return -1
	case bNum:
		return 1
	default:
		return strings.Compare(strings.ToLower(string(f)), strings.ToLower(string(other)))
	}
}

// NewFamilyKey normalizes a raw family key value.
func NewFamilyKey(value string) FamilyKey {
	return FamilyKey(strings.TrimSpace(value))
}
