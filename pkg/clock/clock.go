// Package clock abstracts the current-time source so that SLA arithmetic
// and lifecycle guards can be evaluated deterministically in tests.
//
// Production code uses System; tests use Fake, which only moves when told
// to. Every component that needs "now" takes a Clock rather than calling
// time.Now directly.
package clock

import "time"

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

type system struct{}

func (system) Now() time.Time { return time.Now().UTC() }

// System returns a Clock backed by the wall clock, in UTC.
func System() Clock { return system{} }

// Fake is a manually advanced Clock. Not goroutine-safe; in tests each
// Fake is owned by a single goroutine.
type Fake struct {
	current time.Time
}

// NewFake creates a Fake pinned to the given instant.
func NewFake(t time.Time) *Fake {
	return &Fake{current: t.UTC()}
}

// Now returns the pinned instant.
func (f *Fake) Now() time.Time { return f.current }

// Set pins the clock to a specific instant.
func (f *Fake) Set(t time.Time) { f.current = t.UTC() }

// Advance moves the clock forward by d.
func (f *Fake) Advance(d time.Duration) { f.current = f.current.Add(d) }
