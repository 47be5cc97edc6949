// Package activity tracks the number of in-flight network operations.
//
// The counter drives an external activity indicator: it is shared by
// every API call in a process, incremented on dispatch and decremented
// on completion. A Counter is constructed once and passed by reference
// to its consumers; there is no package-level instance.
package activity

import "sync"

// Counter counts outstanding operations. The zero value is ready to use.
// It is safe for concurrent use and never goes negative.
type Counter struct {
	mu       sync.Mutex
	n        int
	onChange func(n int)
}

// New creates a Counter. onChange, if non-nil, is called with the new
// count after every change, while the counter's lock is held (keep it
// cheap).
func New(onChange func(n int)) *Counter {
	return &Counter{onChange: onChange}
}

// Add records the start of an operation.
func (c *Counter) Add() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	if c.onChange != nil {
		c.onChange(c.n)
	}
}

// Done records the completion of an operation. A Done without a matching
// Add is ignored; the count never drops below zero.
func (c *Counter) Done() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.n == 0 {
		return
	}
	c.n--
	if c.onChange != nil {
		c.onChange(c.n)
	}
}

// Count returns the current number of outstanding operations.
func (c *Counter) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

// Busy reports whether any operation is outstanding.
func (c *Counter) Busy() bool {
	return c.Count() > 0
}
