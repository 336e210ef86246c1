// Package gesture defines Rufus's predefined motion sequences and the
// state machine that plays them.
//
// A gesture is a list of steps, each driving one channel to an angle and
// holding it. Playback is tick-driven: the Sequencer applies at most one
// step per Advance call and never sleeps, so the control loop stays
// responsive while a sequence runs. Every sequence ends with all channels
// back at rest.
package gesture

import "time"

// Step drives one channel to an angle, then holds before the next step.
type Step struct {
	Channel string
	Angle   int
	Hold    time.Duration
}

// Gesture is a named sequence of steps.
type Gesture struct {
	Name  string
	Steps []Step
}

// Duration returns the sum of the step holds. The trailing rest writes
// add one tick on top.
func (g Gesture) Duration() time.Duration {
	var d time.Duration
	for _, s := range g.Steps {
		d += s.Hold
	}
	return d
}

// Core gesture names. These are the ones reachable from the serial verb
// table; the rest of the builtins are only reachable over HTTP.
const (
	Affirmative = "affirmative"
	Negative    = "negative"
	Settle      = "settle"
)

const stepHold = 300 * time.Millisecond

// Builtin returns the built-in gesture table.
func Builtin() []Gesture {
	return []Gesture{
		{
			// Right arm nods three times.
			Name: Affirmative,
			Steps: []Step{
				{Channel: "right_arm", Angle: 150, Hold: stepHold},
				{Channel: "right_arm", Angle: 100, Hold: stepHold},
				{Channel: "right_arm", Angle: 150, Hold: stepHold},
				{Channel: "right_arm", Angle: 100, Hold: stepHold},
				{Channel: "right_arm", Angle: 150, Hold: stepHold},
				{Channel: "right_arm", Angle: 100, Hold: stepHold},
			},
		},
		{
			// Head shakes twice.
			Name: Negative,
			Steps: []Step{
				{Channel: "head", Angle: 70, Hold: stepHold},
				{Channel: "head", Angle: 110, Hold: stepHold},
				{Channel: "head", Angle: 70, Hold: stepHold},
				{Channel: "head", Angle: 110, Hold: stepHold},
			},
		},
		{
			// One step per channel straight to rest.
			Name: Settle,
			Steps: []Step{
				{Channel: "head", Angle: 90},
				{Channel: "left_arm", Angle: 80},
				{Channel: "right_arm", Angle: 90},
			},
		},
		{
			Name: "wave",
			Steps: []Step{
				{Channel: "right_arm", Angle: 160, Hold: 250 * time.Millisecond},
				{Channel: "right_arm", Angle: 120, Hold: 250 * time.Millisecond},
				{Channel: "right_arm", Angle: 160, Hold: 250 * time.Millisecond},
				{Channel: "right_arm", Angle: 120, Hold: 250 * time.Millisecond},
				{Channel: "right_arm", Angle: 160, Hold: 250 * time.Millisecond},
			},
		},
		{
			Name: "excited",
			Steps: []Step{
				{Channel: "left_arm", Angle: 20, Hold: 250 * time.Millisecond},
				{Channel: "right_arm", Angle: 170, Hold: 250 * time.Millisecond},
				{Channel: "head", Angle: 60, Hold: 250 * time.Millisecond},
				{Channel: "head", Angle: 120, Hold: 250 * time.Millisecond},
				{Channel: "head", Angle: 60, Hold: 250 * time.Millisecond},
			},
		},
		{
			Name: "curious",
			Steps: []Step{
				{Channel: "head", Angle: 70, Hold: 400 * time.Millisecond},
				{Channel: "left_arm", Angle: 40, Hold: 300 * time.Millisecond},
				{Channel: "right_arm", Angle: 120, Hold: 300 * time.Millisecond},
				{Channel: "head", Angle: 105, Hold: 400 * time.Millisecond},
			},
		},
	}
}
