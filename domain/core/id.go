package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	// SessionID identifies one adversarial session or ledger session.
	SessionID ID
	// TargetID names an implementation or function under test.
	TargetID ID
)

// NewSessionID returns a fresh time-ordered session identifier.
func NewSessionID() SessionID { return SessionID(NewID()) }

// String conversions for domain IDs
func (id SessionID) String() string { return ID(id).String() }
func (id TargetID) String() string { return ID(id).String() }

// ParseTargetID parses a string into TargetID
func ParseTargetID(s string) (TargetID, error) {
	if strings.TrimSpace(s) == "" {
		return "", ErrEmptyTarget
	}
	return TargetID(s), nil
}

// ParseSessionID parses a string into SessionID
func ParseSessionID(s string) (SessionID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("session ID cannot be empty")
	}
	if _, err := uuid.Parse(s); err != nil {
		return "", fmt.Errorf("session ID %q is not a UUID: %w", s, err)
	}
	return SessionID(s), nil
}
