package core

import "time"

// =============================================================================
// CLOCK - Injected time source
// =============================================================================

// Clock abstracts "current time" so duration math is deterministic in
// tests. Production code uses SystemClock; tests use a FixedClock.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant.
type FixedClock struct {
	At time.Time
}

func (f FixedClock) Now() time.Time { return f.At }
