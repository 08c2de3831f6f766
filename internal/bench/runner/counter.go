package runner

// Counter is the shared integer every worker increments.
//
// Load and Store are plain memory operations. They are only safe inside the
// critical section of an exclusive strategy, or after the completion barrier.
type Counter struct {
	value int64
}

// Load returns the current value.
func (c *Counter) Load() int64 {
	return c.value
}

// Store sets the value.
func (c *Counter) Store(v int64) {
	c.value = v
}

// Reset sets the value to zero.
func (c *Counter) Reset() {
	c.value = 0
}
