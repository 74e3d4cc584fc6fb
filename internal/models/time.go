package models

import "time"

// JST is the fixed UTC+9 offset every persisted timestamp is written in.
var JST = time.FixedZone("JST", 9*60*60)

// Clock returns the current time. Tests substitute fixed clocks.
type Clock func() time.Time

// Now returns clock's time (or wall time for a nil clock) in JST.
func (c Clock) Now() time.Time {
	if c == nil {
		return time.Now().In(JST)
	}
	return c().In(JST)
}
