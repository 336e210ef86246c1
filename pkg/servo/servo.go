// Package servo models Rufus's position-controlled actuator channels and
// the bus drivers that move them.
//
// A Channel is pure geometry: a name, a bus servo ID, and an angular range
// in degrees. Drivers implement PositionWriter; the feetech backend talks
// to an STS servo bus, the mock backend records writes for tests and for
// running without hardware.
package servo

// Channel describes one actuator channel. Angles are integer degrees.
type Channel struct {
	Name string `yaml:"name" json:"name"`
	ID   int    `yaml:"id" json:"id"`
	Min  int    `yaml:"min" json:"min"`
	Max  int    `yaml:"max" json:"max"`
	Rest int    `yaml:"rest" json:"rest"`
}

// Clamp limits angle to the channel's range. Out-of-range and garbage
// inputs are accepted and pulled to the nearest bound; clamping is never
// an error.
func (c Channel) Clamp(angle int) int {
	if angle < c.Min {
		return c.Min
	}
	if angle > c.Max {
		return c.Max
	}
	return angle
}

// DefaultChannels returns the reference hardware layout: head, left arm
// and right arm.
func DefaultChannels() []Channel {
	return []Channel{
		{Name: "head", ID: 1, Min: 40, Max: 120, Rest: 90},
		{Name: "left_arm", ID: 2, Min: 0, Max: 80, Rest: 80},
		{Name: "right_arm", ID: 3, Min: 90, Max: 180, Rest: 90},
	}
}
