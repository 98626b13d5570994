package buffer

// FrameID is the type for frame id
type FrameID uint32

// ClockReplacer decides which buffer frame to evict next using the clock
// (second chance) policy. The pool's frame count is fixed, so the clock
// state is a flat array indexed by frame id: a frame is either pinned
// (outside the clock) or evictable, and an evictable frame gets one
// sweep of grace while its reference bit is set.
type ClockReplacer struct {
	state []frameState
	hand  uint32
	size  uint32
}

type frameState struct {
	evictable  bool
	referenced bool
}

// NewClockReplacer instantiates a clock replacer for poolSize frames
func NewClockReplacer(poolSize uint32) *ClockReplacer {
	return &ClockReplacer{state: make([]frameState, poolSize)}
}

// Victim removes and returns the frame chosen by the clock policy, or
// nil when every frame is pinned.
func (c *ClockReplacer) Victim() *FrameID {
	if c.size == 0 {
		return nil
	}

	for {
		s := &c.state[c.hand]
		if s.evictable {
			if s.referenced {
				s.referenced = false
			} else {
				victim := FrameID(c.hand)
				s.evictable = false
				c.size--
				c.advance()
				return &victim
			}
		}
		c.advance()
	}
}

// Unpin adds a frame to the clock, making it a candidate victim. The
// reference bit is set so the frame survives the sweep in progress.
func (c *ClockReplacer) Unpin(id FrameID) {
	s := &c.state[id]
	if !s.evictable {
		s.evictable = true
		s.referenced = true
		c.size++
	}
}

// Pin takes a frame out of the clock so it cannot be victimized
func (c *ClockReplacer) Pin(id FrameID) {
	s := &c.state[id]
	if s.evictable {
		s.evictable = false
		s.referenced = false
		c.size--
	}
}

// Size returns the number of evictable frames
func (c *ClockReplacer) Size() uint32 {
	return c.size
}

func (c *ClockReplacer) advance() {
	c.hand = (c.hand + 1) % uint32(len(c.state))
}
