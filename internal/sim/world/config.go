package world

// Config is the static configuration of one construction world.
type Config struct {
	ID         string
	TickRateHz int
	Seed       int64

	// Grid shape.
	BoundaryR int // tiles; the world spans [-BoundaryR, BoundaryR] on both axes
	MaxHeight int

	// Height generation.
	RegionSize        int // plateau region edge, in tiles
	RoughnessPermille int // chance per tile of a one-step bump

	// Gesture rate limiting, in world ticks.
	GestureWindowTicks int
	GestureMax         int
}

func (c Config) withDefaults() Config {
	if c.TickRateHz <= 0 {
		c.TickRateHz = 20
	}
	if c.BoundaryR <= 0 {
		c.BoundaryR = 512
	}
	if c.MaxHeight <= 0 {
		c.MaxHeight = 15
	}
	if c.RegionSize <= 0 {
		c.RegionSize = 32
	}
	if c.GestureWindowTicks <= 0 {
		c.GestureWindowTicks = 20
	}
	if c.GestureMax <= 0 {
		c.GestureMax = 40
	}
	return c
}
