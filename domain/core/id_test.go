package core

import (
	"errors"
	"testing"
	"time"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 10000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}

	if len(ids) != numIDs {
		t.Errorf("Expected %d unique IDs, got %d", numIDs, len(ids))
	}
}

// TestParseTargetID tests target ID parsing
func TestParseTargetID(t *testing.T) {
	tests := []struct {
		input    string
		expected TargetID
		hasError bool
	}{
		{"linalg.eigh", TargetID("linalg.eigh"), false},
		{"", "", true},
		{"   ", "", true},
	}

	for _, test := range tests {
		result, err := ParseTargetID(test.input)
		if test.hasError && !errors.Is(err, ErrEmptyTarget) {
			t.Errorf("Expected ErrEmptyTarget for input '%s', got %v", test.input, err)
		}
		if !test.hasError && err != nil {
			t.Errorf("Unexpected error for input '%s': %v", test.input, err)
		}
		if result != test.expected {
			t.Errorf("Expected %s, got %s", test.expected, result)
		}
	}
}

func TestParseSessionID(t *testing.T) {
	id := NewSessionID()
	parsed, err := ParseSessionID(id.String())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if parsed != id {
		t.Errorf("Expected %s, got %s", id, parsed)
	}

	if _, err := ParseSessionID("not-a-uuid"); err == nil {
		t.Error("Expected error for non-UUID session ID")
	}
}

func TestComputeArrayHash(t *testing.T) {
	a := ComputeArrayHash([]int{2}, []complex128{1 + 2i, 3})
	b := ComputeArrayHash([]int{2}, []complex128{1 + 2i, 3})
	if !a.Equals(b) {
		t.Error("Expected identical arrays to hash equal")
	}

	if a.Equals(ComputeArrayHash([]int{1, 2}, []complex128{1 + 2i, 3})) {
		t.Error("Expected shape to change the hash")
	}
	if a.Equals(ComputeArrayHash([]int{2}, []complex128{1 - 2i, 3})) {
		t.Error("Expected conjugation to change the hash")
	}
}

func TestTimestampJSONIsUTC(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	ts := NewTimestamp(time.Date(2024, 1, 1, 12, 0, 0, 0, loc))

	data, err := ts.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON failed: %v", err)
	}
	if string(data) != `"2024-01-01T10:00:00Z"` {
		t.Errorf("Expected UTC timestamp, got %s", data)
	}

	var back Timestamp
	if err := back.UnmarshalJSON(data); err != nil {
		t.Fatalf("UnmarshalJSON failed: %v", err)
	}
	if !back.Time().Equal(ts.Time()) {
		t.Errorf("Round trip changed the instant: %v vs %v", back, ts)
	}
}

func TestHashShort(t *testing.T) {
	h := ComputeArrayHash([]int{1}, []complex128{1})
	if len(h.Short()) != 12 || h.Short() != h.String()[:12] {
		t.Errorf("Short() = %q, want first 12 digits of %q", h.Short(), h)
	}
	if Hash("abc").Short() != "abc" {
		t.Errorf("short hashes must be returned unchanged")
	}
}
