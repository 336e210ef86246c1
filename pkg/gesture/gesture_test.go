package gesture

import (
	"testing"

	"github.com/rufuslabs/go-rufus/pkg/servo"
)

func TestBuiltin_CoreGesturesPresent(t *testing.T) {
	r := NewRegistry(Builtin()...)

	for _, name := range []string{Affirmative, Negative, Settle} {
		if _, ok := r.Lookup(name); !ok {
			t.Errorf("builtin %q missing", name)
		}
	}
}

func TestBuiltin_StepsWithinChannelRanges(t *testing.T) {
	ranges := make(map[string]servo.Channel)
	for _, ch := range servo.DefaultChannels() {
		ranges[ch.Name] = ch
	}

	for _, g := range Builtin() {
		if len(g.Steps) == 0 {
			t.Errorf("gesture %q has no steps", g.Name)
		}
		for i, s := range g.Steps {
			ch, ok := ranges[s.Channel]
			if !ok {
				t.Errorf("gesture %q step %d: unknown channel %q", g.Name, i, s.Channel)
				continue
			}
			if s.Angle < ch.Min || s.Angle > ch.Max {
				t.Errorf("gesture %q step %d: angle %d outside %s range [%d, %d]",
					g.Name, i, s.Angle, s.Channel, ch.Min, ch.Max)
			}
		}
	}
}

func TestBuiltin_AffirmativeUsesRightArmOnly(t *testing.T) {
	r := NewRegistry(Builtin()...)
	g, _ := r.Lookup(Affirmative)

	for i, s := range g.Steps {
		if s.Channel != "right_arm" {
			t.Errorf("step %d: got channel %q, want right_arm", i, s.Channel)
		}
	}
	// Three oscillation cycles
	if len(g.Steps) != 6 {
		t.Errorf("steps: got %d, want 6", len(g.Steps))
	}
}

func TestBuiltin_NegativeUsesHeadOnly(t *testing.T) {
	r := NewRegistry(Builtin()...)
	g, _ := r.Lookup(Negative)

	for i, s := range g.Steps {
		if s.Channel != "head" {
			t.Errorf("step %d: got channel %q, want head", i, s.Channel)
		}
	}
	// Two oscillation cycles
	if len(g.Steps) != 4 {
		t.Errorf("steps: got %d, want 4", len(g.Steps))
	}
}

func TestRegistry_AddReplacesByName(t *testing.T) {
	r := NewRegistry(Builtin()...)
	before := len(r.Names())

	custom := Gesture{Name: Settle, Steps: []Step{{Channel: "head", Angle: 90}}}
	r.Add(custom)

	if got := len(r.Names()); got != before {
		t.Errorf("names after replace: got %d, want %d", got, before)
	}
	g, _ := r.Lookup(Settle)
	if len(g.Steps) != 1 {
		t.Errorf("replaced gesture steps: got %d, want 1", len(g.Steps))
	}
}

func TestRegistry_NamesKeepOrder(t *testing.T) {
	r := NewRegistry(
		Gesture{Name: "a", Steps: []Step{{Channel: "head", Angle: 90}}},
		Gesture{Name: "b", Steps: []Step{{Channel: "head", Angle: 90}}},
	)
	r.Add(Gesture{Name: "c", Steps: []Step{{Channel: "head", Angle: 90}}})

	names := r.Names()
	want := []string{"a", "b", "c"}
	if len(names) != len(want) {
		t.Fatalf("names: got %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d]: got %q, want %q", i, names[i], want[i])
		}
	}
}
