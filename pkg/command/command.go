// Package command parses the newline text protocol spoken over the
// operator link and drives the actuators from it.
//
// The protocol is a single line per command. Verbs are matched case
// sensitively against a fixed table before any prefix form is tried:
//
//	yes | no | neutral | rest | PLAY
//	head_<deg> | left_arm_<deg> | right_arm_<deg>
//
// A degree operand that fails integer parsing is treated as 0 and then
// clamped to the channel range like any other angle.
package command

import (
	"strconv"
	"strings"
)

// Verb identifies what a parsed line asks the device to do.
type Verb int

const (
	VerbUnknown Verb = iota
	VerbYes
	VerbNo
	VerbNeutral
	VerbRest
	VerbPlay
	VerbMove
)

// String returns the verb name for logs and status payloads.
func (v Verb) String() string {
	switch v {
	case VerbYes:
		return "yes"
	case VerbNo:
		return "no"
	case VerbNeutral:
		return "neutral"
	case VerbRest:
		return "rest"
	case VerbPlay:
		return "play"
	case VerbMove:
		return "move"
	default:
		return "unknown"
	}
}

// Command is one parsed protocol line.
type Command struct {
	Verb    Verb
	Channel string // set for VerbMove
	Angle   int    // set for VerbMove, pre-clamp
	Raw     string // the line as received, trimmed
}

// channel prefixes, tried in this order after the exact verb table.
var movePrefixes = []string{"head_", "left_arm_", "right_arm_"}

// Parse turns one link line into a Command. The second return is false
// for blank lines, which carry no command at all and produce no
// diagnostic. Unmatched non-blank lines come back as VerbUnknown.
func Parse(line string) (Command, bool) {
	raw := strings.TrimSpace(line)
	if raw == "" {
		return Command{}, false
	}
	cmd := Command{Raw: raw}

	switch raw {
	case "yes":
		cmd.Verb = VerbYes
		return cmd, true
	case "no":
		cmd.Verb = VerbNo
		return cmd, true
	case "neutral":
		cmd.Verb = VerbNeutral
		return cmd, true
	case "rest":
		cmd.Verb = VerbRest
		return cmd, true
	case "PLAY":
		cmd.Verb = VerbPlay
		return cmd, true
	}

	for _, prefix := range movePrefixes {
		if !strings.HasPrefix(raw, prefix) {
			continue
		}
		cmd.Verb = VerbMove
		cmd.Channel = strings.TrimSuffix(prefix, "_")
		angle, err := strconv.Atoi(raw[len(prefix):])
		if err != nil {
			angle = 0
		}
		cmd.Angle = angle
		return cmd, true
	}

	cmd.Verb = VerbUnknown
	return cmd, true
}
