package realtime

import "encoding/json"

// handleMessage parses one inbound frame and routes it. Malformed frames
// are logged and dropped; nothing here may panic out of the transport
// callback.
func (c *client) handleMessage(gen uint64, data []byte) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}

	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		c.mu.Unlock()
		c.logger.Warn("dropping malformed frame", "error", err)
		return
	}

	globals := c.globals.snapshot()
	var subscribers []EventHandler
	if entry := c.channels[ev.Channel]; entry != nil {
		subscribers = entry.listeners.snapshot()
	}
	c.mu.Unlock()

	for _, h := range globals {
		h(ev)
	}
	for _, h := range subscribers {
		h(ev)
	}
}
