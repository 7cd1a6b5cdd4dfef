// Package warnings collects non-fatal side-channel failures (calendar sync,
// mostly) for later display, de-duplicated by message text.
package warnings

// Collector accumulates warning messages in arrival order, keeping only the
// first occurrence of each distinct text. Not safe for concurrent use.
type Collector struct {
	seen     map[string]struct{}
	messages []string
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{seen: map[string]struct{}{}}
}

// Add records a warning unless the same text was already recorded.
func (c *Collector) Add(message string) {
	if message == "" {
		return
	}
	if _, dup := c.seen[message]; dup {
		return
	}
	c.seen[message] = struct{}{}
	c.messages = append(c.messages, message)
}

// Messages returns the collected warnings in first-seen order.
func (c *Collector) Messages() []string {
	return append([]string(nil), c.messages...)
}

// Len reports how many distinct warnings were collected.
func (c *Collector) Len() int { return len(c.messages) }
