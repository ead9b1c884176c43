// Package deadline bounds how long a search may keep producing results.
package deadline

import "time"

// Deadline is checked by long running iterations. A nil Deadline never
// expires.
type Deadline struct {
	unixNano int64
	hit      bool
}

// New returns a deadline timeout from now, or nil when timeout is not
// positive.
func New(timeout time.Duration) *Deadline {
	if timeout <= 0 {
		return nil
	}
	return &Deadline{unixNano: time.Now().Add(timeout).UnixNano()}
}

// Expired reports whether the deadline has passed. Once it returns true it
// keeps returning true.
func (deadline *Deadline) Expired() bool {
	if deadline == nil {
		return false
	}
	if !deadline.hit && time.Now().UnixNano() > deadline.unixNano {
		deadline.hit = true
	}
	return deadline.hit
}

// Hit returns true if an earlier Expired call saw the deadline pass.
func (deadline *Deadline) Hit() bool {
	return deadline != nil && deadline.hit
}

// Time returns when the deadline expires, or the zero time for nil.
func (deadline *Deadline) Time() time.Time {
	if deadline == nil {
		return time.Time{}
	}
	return time.Unix(0, deadline.unixNano)
}
